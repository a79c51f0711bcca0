package codec

// csv.go decodes CSV uploads.
//
// The first record is the header. Cells are stored verbatim unless the whole
// column can be read as integers, floats or booleans, in which case the column
// is converted. Cells matching one of the missing-value tokens become null.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/cleaner/internal/dataset"
)

// ErrEmptyFile is returned when a CSV upload has no header row.
var ErrEmptyFile = errors.New("empty file: no header row")

// naTokens are the cell values read as null.
var naTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"-NaN": true,
	"-nan": true,
	"NULL": true,
	"null": true,
	"None": true,
	"<NA>": true,
	"#N/A": true,
	"#NA":  true,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeCSV parses a CSV document into a Dataset.
func DecodeCSV(data []byte) (*dataset.Dataset, error) {
	data = bytes.TrimPrefix(sanitizeUTF8(data), utf8BOM)

	records, err := parseCSV(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	header := headerNames(records[0])
	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if seen[name] {
			return nil, fmt.Errorf("duplicate header %q", name)
		}
		seen[name] = true
	}

	body := records[1:]
	cols := make([][]string, len(header))
	nulls := make([][]bool, len(header))
	for c := range cols {
		cols[c] = make([]string, 0, len(body))
		nulls[c] = make([]bool, 0, len(body))
	}

	for i, record := range body {
		if isEmptyRow(record) && len(record) <= 1 {
			continue
		}
		if len(record) > len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", i+2, len(header), len(record))
		}
		for c := range header {
			cell := ""
			missing := true
			if c < len(record) {
				cell = record[c]
				missing = naTokens[cell]
			}
			cols[c] = append(cols[c], cell)
			nulls[c] = append(nulls[c], missing)
		}
	}

	values := make([][]dataset.Value, len(header))
	for c := range header {
		values[c] = inferColumn(cols[c], nulls[c])
	}
	return dataset.New(header, values)
}

// headerNames cleans header cells, naming blank ones after their position.
func headerNames(record []string) []string {
	names := make([]string, len(record))
	for i, h := range record {
		if strings.TrimSpace(h) == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		names[i] = h
	}
	return names
}

// inferColumn converts a column of raw cells to the narrowest type that fits
// every non-null cell: int64, then float64, then bool, else string.
func inferColumn(cells []string, nulls []bool) []dataset.Value {
	allInt, allFloat, allBool := true, true, true
	nonNull := 0
	for i, cell := range cells {
		if nulls[i] {
			continue
		}
		nonNull++
		s := strings.TrimSpace(cell)
		if allInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat && !isDecimal(s) {
			allFloat = false
		}
		if allBool {
			if _, ok := parseBool(s); !ok {
				allBool = false
			}
		}
		if !allInt && !allFloat && !allBool {
			break
		}
	}

	out := make([]dataset.Value, len(cells))
	for i, cell := range cells {
		if nulls[i] {
			continue
		}
		s := strings.TrimSpace(cell)
		switch {
		case nonNull > 0 && allInt:
			n, _ := strconv.ParseInt(s, 10, 64)
			out[i] = n
		case nonNull > 0 && allFloat:
			f, _ := strconv.ParseFloat(s, 64)
			out[i] = f
		case nonNull > 0 && allBool:
			b, _ := parseBool(s)
			out[i] = b
		default:
			out[i] = cell
		}
	}
	return out
}

// isDecimal reports whether s is a plain decimal or scientific number.
// Hex floats and underscores are rejected even though strconv accepts them.
func isDecimal(s string) bool {
	if s == "" || strings.ContainsAny(s, "xX_") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
