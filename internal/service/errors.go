package service

// errors.go maps technical errors to messages the upload page and API can
// show, each with a support code.
//
// Codes:
//
//	SCH001  missing required column(s) in the header row
//	FILE001 file exceeds the upload size limit
//	FILE002 unsupported file type or unreadable workbook/CSV
//	FILE003 file has no header row
//	FILE004 no file in the request
//	CAT001  catalog import is not configured
//	CAT002  catalog rejected the request (auth, conflict, validation)
//	CAT003  catalog unreachable
//	UPL001  all conversion slots busy
//	UPL002  request cancelled
//	UPL003  request timed out
//	UPL004  import history is not enabled
//	UPL005  import run not found
//	ERR000  anything else; check the logs for the original error
//
// Typed and sentinel errors are matched first with errors.Is/errors.As.
// Remaining errors fall back to case-insensitive substring patterns; the
// first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/glossary/internal/catalog"
	"github.com/JonMunkholm/glossary/internal/glossary"
	"github.com/JonMunkholm/glossary/internal/sheet"
	"github.com/JonMunkholm/glossary/internal/store"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when a request carries no file.
	ErrNoFile = errors.New("no file provided")

	// ErrStoreDisabled is returned by history queries when no database is configured.
	ErrStoreDisabled = errors.New("import history is disabled")
)

// UserMessage is a user-facing description of an error.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the glossary into smaller workbooks",
		Code:    "FILE001",
	}
	msgUnsupported = UserMessage{
		Message: "File type is not supported",
		Action:  "Upload an Excel workbook (.xlsx) or a CSV export",
		Code:    "FILE002",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file has no header row",
		Action:  "Put the column names in the first row of the first sheet",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Choose a spreadsheet to convert",
		Code:    "FILE004",
	}
	msgCatalogDisabled = UserMessage{
		Message: "Direct import is not configured",
		Action:  "Set CATALOG_URL or download the CSV and import it manually",
		Code:    "CAT001",
	}
	msgCatalogRejected = UserMessage{
		Message: "The catalog rejected the request",
		Action:  "Check the catalog token and the row errors",
		Code:    "CAT002",
	}
	msgCatalogUnreachable = UserMessage{
		Message: "Unable to reach the catalog",
		Action:  "Check CATALOG_URL and try again",
		Code:    "CAT003",
	}
	msgBusy = UserMessage{
		Message: "The converter is busy with other files",
		Action:  "Please wait a moment and try again",
		Code:    "UPL001",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL002",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "UPL003",
	}
	msgStoreDisabled = UserMessage{
		Message: "Import history is not enabled",
		Action:  "Set DATABASE_URL to keep a history of imports",
		Code:    "UPL004",
	}
	msgRunNotFound = UserMessage{
		Message: "Import run not found",
		Action:  "Check the run ID",
		Code:    "UPL005",
	}
	defaultMessage = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// errorPattern maps a lowercase substring of an error text to a message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"missing required column", UserMessage{
		Message: "Required columns are missing from the header row",
		Action:  "Add the missing columns to the first sheet",
		Code:    "SCH001",
	}},
	{"file too large", msgFileTooLarge},
	{"request body too large", msgFileTooLarge},
	{"unsupported file format", msgUnsupported},
	{"invalid csv", msgUnsupported},
	{"open workbook", msgUnsupported},
	{"empty file", msgEmptyFile},
	{"no file provided", msgNoFile},
	{"catalog not configured", msgCatalogDisabled},
	{"catalog error", msgCatalogRejected},
	{"catalog request failed", msgCatalogUnreachable},
	{"connection refused", msgCatalogUnreachable},
	{"too many conversions", msgBusy},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgTimeout},
	{"timeout", msgTimeout},
	{"import history is disabled", msgStoreDisabled},
	{"import run not found", msgRunNotFound},
}

// MapError converts err to a user-facing message. nil maps to the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var schemaErr *glossary.SchemaError
	if errors.As(err, &schemaErr) {
		return UserMessage{
			Message: "Missing required column: " + strings.Join(schemaErr.Missing, ", "),
			Action:  "Add the missing columns to the first sheet",
			Code:    "SCH001",
		}
	}

	var apiErr *catalog.APIError
	if errors.As(err, &apiErr) {
		return msgCatalogRejected
	}

	switch {
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		return msgUnsupported
	case errors.Is(err, sheet.ErrEmptyFile):
		return msgEmptyFile
	case errors.Is(err, ErrNoFile):
		return msgNoFile
	case errors.Is(err, catalog.ErrNotConfigured):
		return msgCatalogDisabled
	case errors.Is(err, ErrTooManyConversions):
		return msgBusy
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, ErrStoreDisabled):
		return msgStoreDisabled
	case errors.Is(err, store.ErrRunNotFound):
		return msgRunNotFound
	}

	text := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
