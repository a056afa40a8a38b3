// internal/logo/table.go
package logo

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mavekit/internal/alphabet"
	"mavekit/pkg/api"
)

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// WriteCSV writes m in the layout of pandas DataFrame.to_csv: an unnamed
// index column holding the position, then one column per symbol.
func WriteCSV(w io.Writer, m Matrix) error { return writeDelimited(w, m, ',') }

// WriteTSV is WriteCSV with tabs.
func WriteTSV(w io.Writer, m Matrix) error { return writeDelimited(w, m, '\t') }

func writeDelimited(w io.Writer, m Matrix, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(append([]string{""}, m.Alphabet.Labels()...)); err != nil {
		return err
	}
	rec := make([]string, m.Alphabet.Size()+1)
	for i, row := range m.Rows {
		rec[0] = strconv.Itoa(m.Start + i)
		for j, v := range row {
			rec[j+1] = formatFloat(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV (or pandas). The header names
// the alphabet; the index column must be consecutive.
func ReadCSV(r io.Reader) (Matrix, error) {
	cr := csv.NewReader(r)
	head, err := cr.Read()
	if err != nil {
		return Matrix{}, fmt.Errorf("read logo header: %w", err)
	}
	if len(head) < 3 {
		return Matrix{}, fmt.Errorf("logo header has %d columns", len(head))
	}
	alpha, err := alphabet.Parse(strings.Join(head[1:], ""))
	if err != nil {
		return Matrix{}, fmt.Errorf("logo header: %w", err)
	}
	m := Matrix{Alphabet: alpha}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Matrix{}, err
		}
		pos, err := strconv.Atoi(rec[0])
		if err != nil {
			return Matrix{}, fmt.Errorf("line %d: bad position %q", line, rec[0])
		}
		if len(m.Rows) == 0 {
			m.Start = pos
		} else if pos != m.End() {
			return Matrix{}, fmt.Errorf("line %d: position %d breaks sequence (want %d)", line, pos, m.End())
		}
		row := make([]float64, alpha.Size())
		for j := range row {
			if row[j], err = strconv.ParseFloat(rec[j+1], 64); err != nil {
				return Matrix{}, fmt.Errorf("line %d: %w", line, err)
			}
		}
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

// ToAPI converts m to its wire form.
func ToAPI(m Matrix) api.LogoV1 {
	return api.LogoV1{Alphabet: m.Alphabet.Labels(), Start: m.Start, Rows: m.Clone().Rows}
}

// WriteJSON writes m as an api.LogoV1 document.
func WriteJSON(w io.Writer, m Matrix) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToAPI(m))
}
