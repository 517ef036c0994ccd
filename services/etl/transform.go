package etl

import (
	"errors"
	"fmt"
	"math"

	"bankcap-etl/lib/rates"
	"bankcap-etl/lib/tabular"

	"github.com/antzucaro/matchr"
)

// DerivedColumnName returns the name of the converted column for a
// currency code, e.g. "MC_GBP_Billion" for GBP.
func DerivedColumnName(code string) string {
	return fmt.Sprintf("MC_%s_Billion", code)
}

// rounds half to even at two decimals
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// closestColumn suggests an existing column name for one that failed
// to resolve. Returns "" when nothing comes close.
func closestColumn(t *tabular.Table, name string) string {
	best := ""
	bestScore := 0.0
	for _, col := range t.Columns {
		score := matchr.JaroWinkler(name, col.Name, false)
		if score > bestScore {
			best = col.Name
			bestScore = score
		}
	}
	if bestScore < 0.8 {
		return ""
	}
	return best
}

// AddCurrencyColumns appends one converted column per exchange rate,
// in rate declaration order, each value rounded to two decimals. The
// table is left untouched when any part of the conversion fails.
func AddCurrencyColumns(t *tabular.Table, source string, rm rates.Map) error {
	values, err := t.NumericColumn(source)
	if err != nil {
		if errors.Is(err, tabular.ErrNoSuchColumn) {
			if suggestion := closestColumn(t, source); suggestion != "" {
				return fmt.Errorf("%w, did you mean %q?", err, suggestion)
			}
		}
		return err
	}

	type derived struct {
		col    tabular.Column
		values []any
	}
	cols := make([]derived, 0, rm.Len())
	for _, code := range rm.Codes() {
		name := DerivedColumnName(code)
		if t.ColumnIndex(name) >= 0 {
			return fmt.Errorf("derived column %q already exists", name)
		}
		rate, _ := rm.Rate(code)

		converted := make([]any, len(values))
		for i, v := range values {
			converted[i] = round2(v * rate)
		}
		cols = append(cols, derived{
			col:    tabular.Column{Name: name, Precision: 2},
			values: converted,
		})
	}

	for _, d := range cols {
		if err := t.AppendColumn(d.col, d.values); err != nil {
			return err
		}
	}
	return nil
}
