// Package views renders the HTML pages of the cleaner as templ components.
//
// Components are defined in views.templ; views_templ.go is generated from it
// with `templ generate`.
package views

// ResultPage is the data behind the result view.
type ResultPage struct {
	FileName    string
	CleanedName string
	DownloadURL string
	Columns     []string
	Rows        [][]string
	Summary     []SummaryItem
}

// SummaryItem is one label/value line of the cleaning summary.
type SummaryItem struct {
	Label string
	Value string
}
