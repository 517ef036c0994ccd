// Package fetch retrieves pages over http with the hardening needed
// to scrape public sites.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bankcap-etl/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/fetch")

// StatusError reports a response that came back with a non-2xx code.
type StatusError struct {
	Url    string
	Code   int
	Status string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.Url, e.Status)
}

type Client struct {
	http *resty.Client
}

func NewClient() Client {
	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "lib/fetch/http")

	return Client{http: client}
}

// Fetch returns the body of the page at url. Non-2xx responses are
// reported as a StatusError.
func (c Client) Fetch(ctx context.Context, url string) (string, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	res, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		err = fmt.Errorf("fetch %s: %w", url, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if !res.IsSuccess() {
		err := StatusError{Url: url, Code: res.StatusCode(), Status: res.Status()}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	slog.DebugContext(ctx, "fetched page", "url", url, "status", res.StatusCode(), "bytes", len(res.Body()))
	return res.String(), nil
}
