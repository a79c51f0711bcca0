// Package pipeline implements the cleaning pipeline applied to every upload.
//
// A run is four ordered stages, each a pure function from one dataset to a
// new one:
//
//  1. NormalizeColumns lowercases column names and replaces spaces with '_'.
//  2. CleanCountry trims and title-cases the "country" column, if present.
//  3. DropNullRows and DropDuplicateRows remove incomplete and repeated rows.
//  4. Aggregate sums cases, deaths and recovered per (country, date) when all
//     five of those columns are present.
//
// Run chains the stages and returns a Report describing what each one did.
package pipeline

import (
	"github.com/JonMunkholm/cleaner/internal/dataset"
)

// Report summarizes one pipeline run.
type Report struct {
	InputRows         int  `json:"input_rows"`
	InputColumns      int  `json:"input_columns"`
	NullRowsDropped   int  `json:"null_rows_dropped"`
	DuplicatesDropped int  `json:"duplicates_dropped"`
	Aggregated        bool `json:"aggregated"`
	Groups            int  `json:"groups"`
	NonNumeric        int  `json:"non_numeric"`
	OutputRows        int  `json:"output_rows"`
	OutputColumns     int  `json:"output_columns"`
}

// Run applies every stage to ds in order.
// The only error is a *NameCollisionError from column normalization.
func Run(ds *dataset.Dataset) (*dataset.Dataset, Report, error) {
	report := Report{
		InputRows:    ds.NumRows(),
		InputColumns: ds.NumColumns(),
	}

	out, err := NormalizeColumns(ds)
	if err != nil {
		return nil, report, err
	}

	out = CleanCountry(out)

	before := out.NumRows()
	out = DropNullRows(out)
	report.NullRowsDropped = before - out.NumRows()

	before = out.NumRows()
	out = DropDuplicateRows(out)
	report.DuplicatesDropped = before - out.NumRows()

	agg, stats := Aggregate(out)
	if stats.Applied {
		report.Aggregated = true
		report.Groups = stats.Groups
		report.NonNumeric = stats.NonNumeric
	}
	out = agg

	report.OutputRows = out.NumRows()
	report.OutputColumns = out.NumColumns()
	return out, report, nil
}
