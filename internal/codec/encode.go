package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/cleaner/internal/dataset"
)

// EncodeCSV writes ds as CSV: a header row, then one record per row.
// Null cells are written empty.
func EncodeCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ds.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, ds.NumColumns())
	for r := 0; r < ds.NumRows(); r++ {
		for c := range record {
			record[c] = dataset.Format(ds.Value(r, c))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// MarshalCSV is EncodeCSV into a byte slice.
func MarshalCSV(ds *dataset.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
