package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/JonMunkholm/cleaner/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    Format
		wantErr bool
	}{
		{name: "csv", file: "data.csv", want: FormatCSV},
		{name: "json", file: "data.json", want: FormatJSON},
		{name: "upper case extension", file: "DATA.CSV", want: FormatCSV},
		{name: "txt rejected", file: "notes.txt", wantErr: true},
		{name: "no extension", file: "data", wantErr: true},
		{name: "csv in the middle", file: "data.csv.bak", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.file)
			if tt.wantErr {
				var ufe *UnsupportedFormatError
				require.True(t, errors.As(err, &ufe))
				assert.Equal(t, tt.file, ufe.FileName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCSV_TypesAndNulls(t *testing.T) {
	in := "Country,Date,Cases,Rate,Flag\n" +
		"  usa ,2020-01-01,5,0.5,true\n" +
		"USA,2020-01-02,NA,1,False\n" +
		"France,,7,,\n"

	ds, err := DecodeCSV([]byte(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Country", "Date", "Cases", "Rate", "Flag"}, ds.Columns())
	assert.Equal(t, [][]dataset.Value{
		{"  usa ", "2020-01-01", int64(5), 0.5, true},
		{"USA", "2020-01-02", nil, 1.0, false},
		{"France", nil, int64(7), nil, nil},
	}, ds.Rows())
}

func TestDecodeCSV_HeaderOnly(t *testing.T) {
	ds, err := DecodeCSV([]byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.Columns())
	assert.Equal(t, 0, ds.NumRows())
}

func TestDecodeCSV_BOMAndShortRows(t *testing.T) {
	ds, err := DecodeCSV([]byte("\xEF\xBB\xBFa,b\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.Columns())
	assert.Equal(t, []dataset.Value{int64(1), nil}, ds.Row(0))
}

func TestDecodeCSV_BlankHeaderNamed(t *testing.T) {
	ds, err := DecodeCSV([]byte(",b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Unnamed: 0", "b"}, ds.Columns())
}

func TestDecodeCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty file", ""},
		{"duplicate header", "a,a\n1,2\n"},
		{"too many fields", "a,b\n1,2,3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCSV([]byte(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestDecodeJSON_Records(t *testing.T) {
	in := `[{"b": 1, "a": "x"}, {"a": "y", "c": 2.5}, {"b": null, "a": {"k": [1, 2]}}]`

	ds, err := DecodeJSON([]byte(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, ds.Columns())
	assert.Equal(t, [][]dataset.Value{
		{int64(1), "x", nil},
		{nil, "y", 2.5},
		{nil, `{"k":[1,2]}`, nil},
	}, ds.Rows())
}

func TestDecodeJSON_Columns(t *testing.T) {
	in := `{"country": {"0": "usa", "1": "fr"}, "cases": {"0": 3, "1": 4}}`

	ds, err := DecodeJSON([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"country", "cases"}, ds.Columns())
	assert.Equal(t, [][]dataset.Value{{"usa", int64(3)}, {"fr", int64(4)}}, ds.Rows())
}

func TestDecodeJSON_ColumnArrays(t *testing.T) {
	ds, err := DecodeJSON([]byte(`{"a": [1, 2, 3], "b": [true]}`))
	require.NoError(t, err)
	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, []dataset.Value{int64(3), nil}, ds.Row(2))
}

func TestDecodeJSON_Split(t *testing.T) {
	in := `{"columns": ["a", "b"], "data": [[1, "x"], [2, null]]}`

	ds, err := DecodeJSON([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.Columns())
	assert.Equal(t, [][]dataset.Value{{int64(1), "x"}, {int64(2), nil}}, ds.Rows())
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"truncated", `[{"a": 1}`},
		{"scalar document", `42`},
		{"array of scalars", `[1, 2]`},
		{"trailing data", `[] []`},
		{"column is scalar", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestDecodeJSON_DeepNesting(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"unterminated arrays", bytes.Repeat([]byte("["), 1<<20)},
		{"unterminated objects", bytes.Repeat([]byte(`{"a":`), 1<<18)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON(tt.in)
			assert.ErrorIs(t, err, ErrTooDeep)

			_, err = Decode("deep.json", tt.in)
			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestDecodeJSON_ColumnsNamedLikeSplit(t *testing.T) {
	ds, err := DecodeJSON([]byte(`{"columns": [1, 2], "data": [3, 4]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"columns", "data"}, ds.Columns())
	assert.Equal(t, [][]dataset.Value{{int64(1), int64(3)}, {int64(2), int64(4)}}, ds.Rows())

	ds, err = DecodeJSON([]byte(`{"columns": ["a"], "data": [[1]], "extra": [2]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"columns", "data", "extra"}, ds.Columns())
}

func TestDecode_WrapsParseError(t *testing.T) {
	_, err := Decode("broken.json", []byte(`{`))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, FormatJSON, pe.Format)
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode("notes.txt", []byte("hello"))

	var ufe *UnsupportedFormatError
	assert.True(t, errors.As(err, &ufe))
}

func TestEncodeCSV(t *testing.T) {
	ds := dataset.MustFromRows([]string{"country", "cases", "rate"}, [][]dataset.Value{
		{"Usa", int64(5), 0.25},
		{"New, York", nil, 2.0},
	})

	out, err := MarshalCSV(ds)
	require.NoError(t, err)
	assert.Equal(t, "country,cases,rate\nUsa,5,0.25\n\"New, York\",,2\n", string(out))
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	ds := dataset.MustFromRows([]string{"a", "b"}, [][]dataset.Value{
		{"x", int64(1)},
		{"y", int64(2)},
	})

	out, err := MarshalCSV(ds)
	require.NoError(t, err)

	back, err := DecodeCSV(out)
	require.NoError(t, err)
	assert.True(t, ds.Equal(back))
}
