package core

// error_messages.go maps cleaning errors to user-facing messages with a
// support code. Users quote the code; logs keep the technical error.
//
//	FILE001  upload exceeds the size limit
//	FILE002  file could not be parsed as CSV or JSON
//	FILE003  file is empty
//	FILE004  request had no "file" part
//	FILE005  "file" part had an empty file name
//	FILE006  extension is neither .csv nor .json
//	VAL007   two columns normalize to the same name
//	UPL002   all upload slots busy
//	UPL004   request cancelled
//	UPL005   request timed out
//	ERR000   anything else; check the logs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/cleaner/internal/codec"
	"github.com/JonMunkholm/cleaner/internal/pipeline"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Remove unneeded rows or columns and upload again",
		Code:    "FILE001",
	}
	msgParse = UserMessage{
		Message: "File could not be read",
		Action:  "Check that the file is valid CSV or JSON with one table",
		Code:    "FILE002",
	}
	msgEmpty = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row",
		Code:    "FILE003",
	}
	msgNoFilePart = UserMessage{
		Message: "No file part",
		Action:  "Submit the form with a file field",
		Code:    "FILE004",
	}
	msgNoSelectedFile = UserMessage{
		Message: "No selected file",
		Action:  "Choose a CSV or JSON file to upload",
		Code:    "FILE005",
	}
	msgUnsupported = UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload a .csv or .json file",
		Code:    "FILE006",
	}
	msgCollision = UserMessage{
		Message: "Two columns have the same name after normalization",
		Action:  "Rename columns that differ only by case or spaces",
		Code:    "VAL007",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCanceled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or check your connection",
		Code:    "UPL005",
	}
)

// errorPattern matches errors that lost their identity, e.g. after crossing
// a string boundary in a wrapped message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are checked case-insensitively, in order, after the typed checks.
var errorPatterns = []errorPattern{
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "request body too large", msg: msgFileTooLarge},
	{pattern: "too many uploads", msg: msgBusy},
	{pattern: "context canceled", msg: msgCanceled},
	{pattern: "context deadline exceeded", msg: msgTimeout},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-facing message. Typed and sentinel
// errors are matched with errors.As/errors.Is first, then known message
// patterns. Unknown errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		unsupported *codec.UnsupportedFormatError
		parseErr    *codec.ParseError
		collision   *pipeline.NameCollisionError
	)

	switch {
	case errors.Is(err, ErrMissingFile):
		return msgNoFilePart
	case errors.Is(err, ErrNoSelectedFile):
		return msgNoSelectedFile
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge
	case errors.As(err, &unsupported):
		return msgUnsupported
	case errors.Is(err, codec.ErrEmptyFile):
		return msgEmpty
	case errors.As(err, &parseErr):
		return msgParse
	case errors.As(err, &collision):
		return msgCollision
	case errors.Is(err, ErrTooManyUploads):
		return msgBusy
	case errors.Is(err, context.Canceled):
		return msgCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders MapError as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
