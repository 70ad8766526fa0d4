// Package export serializes a ledger for download.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"expensetracker/internal/core"
)

const (
	Filename    = "expenses.csv"
	ContentType = "text/csv"
)

// Header is the first row of every export.
var Header = []string{"Date", "Category", "Description", "Amount"}

var ErrBadHeader = errors.New("unexpected csv header")

// WriteCSV writes expenses in ledger order, one row per expense.
func WriteCSV(w io.Writer, expenses []core.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range expenses {
		row := []string{e.Date.String(), e.Category, e.Description, e.Amount.String()}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a document produced by WriteCSV.
func ReadCSV(r io.Reader) ([]core.Expense, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(head, Header) {
		return nil, fmt.Errorf("%w: %q", ErrBadHeader, head)
	}

	var out []core.Expense
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		d, err := core.ParseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: parse date %q: %w", line, rec[0], err)
		}
		amt, err := core.ParseAmount(rec[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: parse amount %q: %w", line, rec[3], err)
		}
		out = append(out, core.Expense{Date: d, Category: rec[1], Description: rec[2], Amount: amt})
	}
}
