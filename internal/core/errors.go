package core

import "errors"

var (
	// ErrMissingFile means the request carried no "file" part.
	ErrMissingFile = errors.New("no file part")

	// ErrNoSelectedFile means the "file" part had an empty file name.
	ErrNoSelectedFile = errors.New("no selected file")

	// ErrFileTooLarge means the upload exceeded the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
)
