package pipeline

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JonMunkholm/cleaner/internal/dataset"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CountryColumn is the column cleaned by CleanCountry.
const CountryColumn = "country"

// NameCollisionError is returned when two column names normalize to the same name.
type NameCollisionError struct {
	Name   string // normalized name
	First  string // original name that claimed it first
	Second string // original name that collided
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("column name collision: %q and %q both normalize to %q", e.First, e.Second, e.Name)
}

// NormalizeName lowercases name and replaces each space with an underscore.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// NormalizeColumns renames every column with NormalizeName.
func NormalizeColumns(ds *dataset.Dataset) (*dataset.Dataset, error) {
	cols := ds.Columns()
	names := make([]string, len(cols))
	owner := make(map[string]string, len(cols))

	for i, col := range cols {
		n := NormalizeName(col)
		if prev, ok := owner[n]; ok {
			return nil, &NameCollisionError{Name: n, First: prev, Second: col}
		}
		owner[n] = col
		names[i] = n
	}

	return ds.RenameColumns(names)
}

// CleanCountry trims and title-cases every non-null value of the country
// column. Datasets without that column are returned unchanged.
func CleanCountry(ds *dataset.Dataset) *dataset.Dataset {
	values, ok := ds.Column(CountryColumn)
	if !ok {
		return ds
	}

	tc := newTitleCaser()
	for i, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		s, isString := v.(string)
		if !isString {
			s = dataset.Format(v)
		}
		values[i] = tc.title(strings.TrimSpace(s))
	}

	out, err := ds.WithColumn(CountryColumn, values)
	if err != nil {
		// Unreachable: the column exists and keeps its length.
		panic(err)
	}
	return out
}

// titleCaser upper-cases the first letter of each whitespace-separated word
// and lower-cases the rest. Casers carry state, so one is built per stage run.
type titleCaser struct {
	first cases.Caser
	rest  cases.Caser
}

func newTitleCaser() *titleCaser {
	return &titleCaser{
		first: cases.Title(language.Und),
		rest:  cases.Lower(language.Und),
	}
}

func (t *titleCaser) title(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				t.word(&b, s[start:i])
				start = -1
			}
			b.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		t.word(&b, s[start:])
	}
	return b.String()
}

func (t *titleCaser) word(b *strings.Builder, w string) {
	idx := strings.IndexFunc(w, unicode.IsLetter)
	if idx < 0 {
		b.WriteString(t.rest.String(w))
		return
	}
	_, size := utf8.DecodeRuneInString(w[idx:])
	b.WriteString(w[:idx])
	b.WriteString(t.first.String(w[idx : idx+size]))
	b.WriteString(t.rest.String(w[idx+size:]))
}

// DropNullRows removes every row with a null in any column.
func DropNullRows(ds *dataset.Dataset) *dataset.Dataset {
	keep := make([]int, 0, ds.NumRows())
	for r := 0; r < ds.NumRows(); r++ {
		complete := true
		for c := 0; c < ds.NumColumns(); c++ {
			if dataset.IsNull(ds.Value(r, c)) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, r)
		}
	}
	return ds.SelectRows(keep)
}

// DropDuplicateRows keeps the first occurrence of each distinct row.
func DropDuplicateRows(ds *dataset.Dataset) *dataset.Dataset {
	seen := make(map[string]struct{}, ds.NumRows())
	keep := make([]int, 0, ds.NumRows())
	for r := 0; r < ds.NumRows(); r++ {
		key := dataset.Key(ds.Row(r)...)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, r)
	}
	return ds.SelectRows(keep)
}
