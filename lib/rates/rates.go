// Package rates loads the exchange rate table that drives the derived
// currency columns.
package rates

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Pair is a currency code and its conversion rate from US dollars.
type Pair struct {
	Code string
	Rate float64
}

// Map holds exchange rates keyed by currency code. It remembers the
// order codes were declared in so derived columns come out in a
// stable order.
type Map struct {
	codes []string
	rates map[string]float64
}

func New(pairs []Pair) (Map, error) {
	if len(pairs) == 0 {
		return Map{}, fmt.Errorf("no exchange rates given")
	}

	m := Map{rates: make(map[string]float64, len(pairs))}
	for _, p := range pairs {
		code := strings.TrimSpace(p.Code)
		if code == "" {
			return Map{}, fmt.Errorf("blank currency code")
		}
		if _, ok := m.rates[code]; ok {
			return Map{}, fmt.Errorf("duplicate currency code %q", code)
		}
		if math.IsInf(p.Rate, 0) || !(p.Rate > 0) {
			return Map{}, fmt.Errorf("rate for %q must be a positive number, got %v", code, p.Rate)
		}
		m.codes = append(m.codes, code)
		m.rates[code] = p.Rate
	}
	return m, nil
}

// Codes returns the currency codes in declaration order.
func (m Map) Codes() []string {
	return m.codes
}

func (m Map) Rate(code string) (float64, bool) {
	rate, ok := m.rates[code]
	return rate, ok
}

func (m Map) Len() int {
	return len(m.codes)
}

// Load reads exchange rates from a csv file of Currency,Rate records.
// The first record must be a header row.
func Load(path string) (Map, error) {
	fail := func(err error) (Map, error) {
		return Map{}, fmt.Errorf("read rates %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	header, err := r.Read()
	if err == io.EOF {
		return fail(fmt.Errorf("file is empty"))
	}
	if err != nil {
		return fail(err)
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(header[1]), 64); err == nil {
		return fail(fmt.Errorf("first record looks like data, expected a header row"))
	}

	var pairs []Pair
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(err)
		}

		rate, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return fail(fmt.Errorf("line %d: bad rate %q", line, record[1]))
		}
		pairs = append(pairs, Pair{
			Code: strings.TrimSpace(record[0]),
			Rate: rate,
		})
	}

	m, err := New(pairs)
	if err != nil {
		return fail(err)
	}
	return m, nil
}
