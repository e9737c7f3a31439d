package core

// Error codes quoted to users and support staff.
//
//	VAL002  invalid number in a numeric column
//	VAL004  required column missing from the header
//	FILE001 upload over the size limit
//	FILE002 not a readable CSV
//	FILE004 no file in the request
//	FILE005 file without a header or data rows
//	BAT001  batch not found (never existed or evicted)
//	BAT002  batch has no equipment records
//	UPL002  every ingestion slot is busy
//	UPL004  request cancelled
//	UPL005  request timed out
//	DB004..DB007 database connectivity
//	RATE001 rate limit
//	ERR000  anything else; check the logs for the technical error
//
// Structured *Error values are classified by their fields. Everything else
// falls through to case-insensitive substring patterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgInvalidNumber = UserMessage{"Invalid number format detected", "Flowrate, Pressure and Temperature must be plain decimal numbers", "VAL002"}
	msgMissingColumn = UserMessage{"Required column is missing from CSV", "Include the columns Equipment Name, Type, Flowrate, Pressure and Temperature", "VAL004"}
	msgTooLarge      = UserMessage{"File exceeds maximum size limit", "Split the file into smaller chunks", "FILE001"}
	msgInvalidCSV    = UserMessage{"File is not a valid CSV", "Ensure file is comma-separated with consistent columns", "FILE002"}
	msgNoFile        = UserMessage{"No file was selected", "Please select a CSV file to upload", "FILE004"}
	msgEmptyFile     = UserMessage{"The uploaded file is empty", "Please upload a CSV file with data rows", "FILE005"}
	msgNotFound      = UserMessage{"Batch not found", "Only the five most recent uploads are kept. Upload the file again", "BAT001"}
	msgEmptyBatch    = UserMessage{"This batch has no equipment records", "Upload a CSV file with at least one data row", "BAT002"}
	msgBusy          = UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL002"}
	msgCancelled     = UserMessage{"Request was cancelled", "Please try again", "UPL004"}
	msgTimedOut      = UserMessage{"Request timed out", "Try uploading a smaller file or check your connection", "UPL005"}
	msgUnexpected    = UserMessage{"An unexpected error occurred", "Please try again or contact support", "ERR000"}
)

// errorPatterns classify unstructured errors, mostly from drivers and the
// network. Order matters.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"file too large", msgTooLarge},
	{"request body too large", msgTooLarge},
	{"no file provided", msgNoFile},
	{"empty file", msgEmptyFile},
	{"invalid csv", msgInvalidCSV},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Try uploading a smaller file or try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// MapError converts a technical error to a user-facing message. A nil
// error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch KindOf(err) {
	case KindNotFound:
		return msgNotFound
	case KindEmptyBatch:
		return msgEmptyBatch
	}

	var e *Error
	if errors.As(err, &e) {
		switch {
		case len(e.Missing) > 0:
			return msgMissingColumn
		case e.Line > 0 && e.Column != "":
			return msgInvalidNumber
		}
	}

	switch {
	case errors.Is(err, ErrTooManyUploads):
		return msgBusy
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimedOut
	}

	s := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(s, p.pattern) {
			return p.msg
		}
	}
	return msgUnexpected
}

// FormatUserError renders err as "Message (Code: XXX). Action", or "" for nil.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Code == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != msgUnexpected.Code
}
