// Package codec turns uploaded bytes into datasets and datasets back into CSV.
//
// The format is chosen from the file extension alone: ".csv" and ".json"
// (case-insensitive) are recognized, anything else yields an
// UnsupportedFormatError. Bytes that cannot be read in the claimed format
// yield a ParseError.
package codec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/cleaner/internal/dataset"
)

// Format identifies a supported upload encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// UnsupportedFormatError is returned for file names without a recognized extension.
type UnsupportedFormatError struct {
	FileName string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %q", e.FileName)
}

// ParseError is returned when the bytes are not valid for the detected format.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Detect returns the Format implied by a file name's extension.
func Detect(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", &UnsupportedFormatError{FileName: fileName}
	}
}

// Decode parses data according to the format implied by fileName.
func Decode(fileName string, data []byte) (*dataset.Dataset, error) {
	format, err := Detect(fileName)
	if err != nil {
		return nil, err
	}

	var ds *dataset.Dataset
	switch format {
	case FormatCSV:
		ds, err = DecodeCSV(data)
	case FormatJSON:
		ds, err = DecodeJSON(data)
	}
	if err != nil {
		return nil, &ParseError{Format: format, Err: err}
	}
	return ds, nil
}
