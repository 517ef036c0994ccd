package tabular

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// QuoteIdent quotes a column or table name for use in SQL text. Extracted
// header names routinely contain spaces and punctuation.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// affinity infers the store type of one column from its cell values:
// all-integer columns map to INTEGER, mixed numeric to REAL, the rest to
// TEXT.
func affinity(t *Table, idx int) string {
	hasInt := false
	hasFloat := false
	for _, row := range t.Rows {
		switch row[idx].(type) {
		case int64:
			hasInt = true
		case float64:
			hasFloat = true
		default:
			return "TEXT"
		}
	}
	if hasFloat {
		return "REAL"
	}
	if hasInt {
		return "INTEGER"
	}
	return "TEXT"
}

// Replace drops and recreates the named store table with the given table's
// schema and rows, all inside one transaction.
func Replace(ctx context.Context, db *sql.DB, name string, t *Table) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace table %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+QuoteIdent(name)); err != nil {
		return fmt.Errorf("replace table %s: %w", name, err)
	}

	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = QuoteIdent(c.Name) + " " + affinity(t, i)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("replace table %s: %w", name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(t.Columns)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s VALUES (%s)", QuoteIdent(name), placeholders,
	))
	if err != nil {
		return fmt.Errorf("replace table %s: %w", name, err)
	}
	defer stmt.Close()

	for _, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("replace table %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace table %s: %w", name, err)
	}
	return nil
}

// Query runs a read query and collects every resulting row, in the order
// the store produced them. NULLs surface as empty strings, blobs as text.
func Query(ctx context.Context, db *sql.DB, query string) (*Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}

	t := New(cols...)
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query %q: %w", query, err)
		}
		row := make(Row, len(cells))
		for i, c := range cells {
			row[i] = normalizeScalar(c)
		}
		if err := t.AppendRow(row); err != nil {
			return nil, fmt.Errorf("query %q: %w", query, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}
	return t, nil
}

func normalizeScalar(v any) any {
	switch v := v.(type) {
	case nil:
		return ""
	case string, int64, float64:
		return v
	case []byte:
		return string(v)
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	default:
		return fmt.Sprint(v)
	}
}
