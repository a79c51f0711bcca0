package codec

// json.go decodes JSON uploads in three layouts:
//
//	records: [{"a": 1, "b": "x"}, {"a": 2}]
//	columns: {"a": {"0": 1, "1": 2}, "b": {"0": "x"}}  or  {"a": [1, 2], "b": ["x", null]}
//	split:   {"columns": ["a", "b"], "data": [[1, "x"], [2, null]]}
//
// Object key order is preserved, so column order follows the document.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/cleaner/internal/dataset"
)

// ErrUnsupportedLayout is returned for JSON documents that are not tables.
var ErrUnsupportedLayout = errors.New("json document is not a table of records or columns")

// ErrTooDeep is returned for documents nested deeper than maxDepth.
var ErrTooDeep = errors.New("json document exceeds maximum nesting depth")

// maxDepth matches the nesting limit of the encoding/json scanner.
const maxDepth = 10000

// orderedObject is a JSON object that remembers key order.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o *orderedObject) get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// DecodeJSON parses a JSON document into a Dataset.
func DecodeJSON(data []byte) (*dataset.Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM))))
	dec.UseNumber()

	doc, err := readValue(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}

	switch v := doc.(type) {
	case []any:
		return fromRecords(v)
	case *orderedObject:
		if isSplit(v) {
			return fromSplit(v)
		}
		return fromColumns(v)
	default:
		return nil, ErrUnsupportedLayout
	}
}

// readValue reads one JSON value, keeping objects as *orderedObject.
func readValue(dec *json.Decoder, depth int) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("empty document")
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		if depth >= maxDepth {
			return nil, ErrTooDeep
		}
		switch t {
		case '{':
			obj := &orderedObject{values: make(map[string]any)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", keyTok)
				}
				val, err := readValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				if _, dup := obj.values[key]; !dup {
					obj.keys = append(obj.keys, key)
				}
				obj.values[key] = val
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			var arr []any
			for dec.More() {
				val, err := readValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			if arr == nil {
				arr = []any{}
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		return tok, nil
	}
}

func fromRecords(records []any) (*dataset.Dataset, error) {
	var columns []string
	index := make(map[string]int)
	objs := make([]*orderedObject, len(records))

	for i, rec := range records {
		obj, ok := rec.(*orderedObject)
		if !ok {
			return nil, fmt.Errorf("record %d is not an object: %w", i, ErrUnsupportedLayout)
		}
		objs[i] = obj
		for _, k := range obj.keys {
			if _, seen := index[k]; !seen {
				index[k] = len(columns)
				columns = append(columns, k)
			}
		}
	}

	rows := make([][]dataset.Value, len(objs))
	for i, obj := range objs {
		row := make([]dataset.Value, len(columns))
		for c, name := range columns {
			if v, ok := obj.get(name); ok {
				row[c] = scalar(v)
			}
		}
		rows[i] = row
	}
	return dataset.FromRows(columns, rows)
}

// isSplit reports whether obj is {"columns": [...], "data": [[...], ...]},
// optionally with "index". Anything else is read column-wise, so a table whose
// columns happen to be named "columns" and "data" still decodes as columns.
func isSplit(obj *orderedObject) bool {
	for _, k := range obj.keys {
		if k != "columns" && k != "data" && k != "index" {
			return false
		}
	}
	cols, hasCols := obj.get("columns")
	data, hasData := obj.get("data")
	if !hasCols || !hasData {
		return false
	}
	if _, ok := cols.([]any); !ok {
		return false
	}
	rows, ok := data.([]any)
	if !ok {
		return false
	}
	for _, r := range rows {
		if _, ok := r.([]any); !ok {
			return false
		}
	}
	return true
}

func fromSplit(obj *orderedObject) (*dataset.Dataset, error) {
	rawCols, _ := obj.get("columns")
	rawData, _ := obj.get("data")

	colVals := rawCols.([]any)
	columns := make([]string, len(colVals))
	for i, c := range colVals {
		columns[i] = dataset.Format(scalar(c))
	}

	dataRows := rawData.([]any)
	rows := make([][]dataset.Value, len(dataRows))
	for i, r := range dataRows {
		cells, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("data row %d is not an array: %w", i, ErrUnsupportedLayout)
		}
		if len(cells) != len(columns) {
			return nil, fmt.Errorf("data row %d has %d values, want %d", i, len(cells), len(columns))
		}
		row := make([]dataset.Value, len(cells))
		for c, v := range cells {
			row[c] = scalar(v)
		}
		rows[i] = row
	}
	return dataset.FromRows(columns, rows)
}

// fromColumns handles {"col": {"idx": v}} and {"col": [v, ...]}.
// Index labels are unioned across columns in first-seen order.
func fromColumns(obj *orderedObject) (*dataset.Dataset, error) {
	var labels []string
	labelPos := make(map[string]int)
	colMaps := make([]map[string]any, len(obj.keys))

	for i, name := range obj.keys {
		m := make(map[string]any)
		switch col := obj.values[name].(type) {
		case *orderedObject:
			for _, label := range col.keys {
				m[label] = col.values[label]
				if _, ok := labelPos[label]; !ok {
					labelPos[label] = len(labels)
					labels = append(labels, label)
				}
			}
		case []any:
			for j, v := range col {
				label := strconv.Itoa(j)
				m[label] = v
				if _, ok := labelPos[label]; !ok {
					labelPos[label] = len(labels)
					labels = append(labels, label)
				}
			}
		default:
			return nil, fmt.Errorf("column %q is neither an object nor an array: %w", name, ErrUnsupportedLayout)
		}
		colMaps[i] = m
	}

	data := make([][]dataset.Value, len(obj.keys))
	for i, m := range colMaps {
		col := make([]dataset.Value, len(labels))
		for j, label := range labels {
			if v, ok := m[label]; ok {
				col[j] = scalar(v)
			}
		}
		data[i] = col
	}
	return dataset.New(obj.keys, data)
}

// scalar converts a decoded JSON value to a dataset value.
// Nested objects and arrays are kept as compact JSON text.
func scalar(v any) dataset.Value {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case bool:
		return x
	case json.Number:
		if n, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case *orderedObject, []any:
		var buf bytes.Buffer
		writeCompact(&buf, x)
		return buf.String()
	default:
		return fmt.Sprint(x)
	}
}

func writeCompact(buf *bytes.Buffer, v any) {
	switch x := v.(type) {
	case *orderedObject:
		buf.WriteByte('{')
		for i, k := range x.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			writeCompact(buf, x.values[k])
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCompact(buf, e)
		}
		buf.WriteByte(']')
	case json.Number:
		buf.WriteString(x.String())
	default:
		b, _ := json.Marshal(x)
		buf.Write(b)
	}
}
