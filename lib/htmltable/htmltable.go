// Package htmltable locates a table in an html document by the text
// that precedes it and decomposes it into a tabular.Table.
package htmltable

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bankcap-etl/lib/tabular"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("lib/htmltable")

var (
	ErrAnchorNotFound = errors.New("anchor not found")
	ErrMalformedTable = errors.New("malformed table")
)

// Extract parses markup and returns the first <table> element that
// follows the anchor text in document order. The anchor matches a
// single text node, compared after trimming surrounding whitespace.
func Extract(ctx context.Context, markup, anchor string) (*tabular.Table, error) {
	_, span := tracer.Start(ctx, "Extract")
	defer span.End()

	fail := func(err error) (*tabular.Table, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	want := strings.TrimSpace(anchor)
	if want == "" {
		return fail(fmt.Errorf("%w: empty anchor text", ErrAnchorNotFound))
	}
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return fail(fmt.Errorf("parse html: %w", err))
	}
	node := findText(root, want)
	if node == nil {
		return fail(fmt.Errorf("%w: %q", ErrAnchorNotFound, want))
	}
	table := nextTable(node)
	if table == nil {
		return fail(fmt.Errorf("%w: no table follows %q", ErrMalformedTable, want))
	}
	tbl, err := decompose(table)
	if err != nil {
		return fail(err)
	}
	return tbl, nil
}

// next returns the node that follows n in document order.
func next(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

func findText(root *html.Node, want string) *html.Node {
	for n := root; n != nil; n = next(n) {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) == want {
			return n
		}
	}
	return nil
}

func nextTable(n *html.Node) *html.Node {
	for n = next(n); n != nil; n = next(n) {
		if n.Type == html.ElementNode && n.Data == "table" {
			return n
		}
	}
	return nil
}

func decompose(table *html.Node) (*tabular.Table, error) {
	rows := goquery.NewDocumentFromNode(table).Find("tr")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("%w: table has no rows", ErrMalformedTable)
	}

	// Wikipedia-style tables mark header cells with <th>. Fall back to
	// <td> for tables that do not.
	headerCells := rows.First().Find("th")
	if headerCells.Length() == 0 {
		headerCells = rows.First().Find("td")
	}
	var names []string
	headerCells.Each(func(_ int, cell *goquery.Selection) {
		names = append(names, collapse(cell.Text()))
	})
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: header row has no cells", ErrMalformedTable)
	}
	seen := map[string]bool{}
	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: blank header cell", ErrMalformedTable)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate header %q", ErrMalformedTable, name)
		}
		seen[name] = true
	}

	tbl := tabular.New(names...)
	for i := 1; i < rows.Length(); i++ {
		cells := rows.Eq(i).Find("th, td")
		if cells.Length() == 0 {
			continue
		}
		if cells.Length() != len(names) {
			return nil, fmt.Errorf(
				"%w: row %d has %d cells, expected %d",
				ErrMalformedTable, i, cells.Length(), len(names),
			)
		}
		row := make(tabular.Row, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			row = append(row, tabular.Coerce(collapse(cell.Text())))
		})
		if err := tbl.AppendRow(row); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
	}
	return tbl, nil
}

// collapse folds runs of whitespace into single spaces, which strips
// the newlines wikipedia nests inside cell markup.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
