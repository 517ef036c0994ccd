// Package etl runs the bank market cap pipeline: fetch the source
// page, extract the anchored table, append converted currency
// columns, then load the result into a csv file and a sql store.
package etl

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"bankcap-etl/lib/fetch"
	"bankcap-etl/lib/htmltable"
	"bankcap-etl/lib/rates"
	"bankcap-etl/lib/sqliteutil"
	"bankcap-etl/lib/tabular"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/etl")

var validate = validator.New()

type Config struct {
	Url          string `json:"url" validate:"required,url"`
	Anchor       string `json:"anchor" validate:"required"`
	SourceColumn string `json:"source_column" validate:"required"`
	RatesCsv     string `json:"rates_csv" validate:"required"`
	OutputCsv    string `json:"output_csv" validate:"required"`
	Database     string `json:"database" validate:"required"`
	TableName    string `json:"table_name" validate:"required"`
}

func (c Config) Validate() error {
	err := validate.Struct(c)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

type Service struct {
	config Config
	rates  rates.Map
	client fetch.Client
	out    io.Writer
}

// NewService creates a pipeline service. Query results are rendered
// to out, which defaults to stdout when nil.
func NewService(config Config, rm rates.Map, client fetch.Client, out io.Writer) Service {
	if out == nil {
		out = os.Stdout
	}
	return Service{
		config: config,
		rates:  rm,
		client: client,
		out:    out,
	}
}

// VerificationQueries returns the statements run against the loaded
// table at the end of every pipeline run.
func (s Service) VerificationQueries() []string {
	table := tabular.QuoteIdent(s.config.TableName)
	return []string{
		fmt.Sprintf("SELECT * FROM %s LIMIT 5", table),
		fmt.Sprintf("SELECT AVG(%s) FROM %s", tabular.QuoteIdent(DerivedColumnName("GBP")), table),
		fmt.Sprintf("SELECT %s FROM %s LIMIT 5", tabular.QuoteIdent("Bank name"), table),
	}
}

// Run executes one extract, transform, load cycle followed by the
// verification queries.
func (s Service) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	log := slog.With("run_id", uuid.NewString())

	fail := func(stage string, err error) error {
		err = fmt.Errorf("%s: %w", stage, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorContext(ctx, "pipeline failed", "stage", stage, "err", err.Error())
		return err
	}

	log.InfoContext(ctx, "preliminaries complete, initiating ETL", "url", s.config.Url)

	tbl, err := s.extract(ctx)
	if err != nil {
		return fail("extract", err)
	}
	log.InfoContext(ctx, "data extraction complete, initiating transformation",
		"rows", len(tbl.Rows), "columns", len(tbl.Columns))

	err = AddCurrencyColumns(tbl, s.config.SourceColumn, s.rates)
	if err != nil {
		return fail("transform", err)
	}
	log.InfoContext(ctx, "transformation complete, initiating load")

	err = tabular.WriteCSV(tbl, s.config.OutputCsv)
	if err != nil {
		return fail("load", err)
	}
	log.InfoContext(ctx, "table saved to csv", "path", s.config.OutputCsv)

	db, err := sqliteutil.OpenDB(s.config.Database)
	if err != nil {
		return fail("load", err)
	}
	defer db.Close()

	err = tabular.Replace(ctx, db, s.config.TableName, tbl)
	if err != nil {
		return fail("load", err)
	}
	log.InfoContext(ctx, "table loaded into store, executing queries",
		"database", s.config.Database, "table", s.config.TableName)

	err = s.runQueries(ctx, db)
	if err != nil {
		return fail("query", err)
	}

	log.InfoContext(ctx, "run complete")
	return nil
}

func (s Service) extract(ctx context.Context) (*tabular.Table, error) {
	page, err := s.client.Fetch(ctx, s.config.Url)
	if err != nil {
		return nil, err
	}
	return htmltable.Extract(ctx, page, s.config.Anchor)
}

func (s Service) runQueries(ctx context.Context, db *sql.DB) error {
	for _, query := range s.VerificationQueries() {
		result, err := tabular.Query(ctx, db, query)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, query)
		tabular.Render(s.out, result)
		fmt.Fprintln(s.out)
	}
	return nil
}
