package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"missing columns", missingColumns([]string{"Pressure"}), "VAL004"},
		{"invalid number", invalidNumber(3, "Flowrate", "abc"), "VAL002"},
		{"wrapped invalid number", fmt.Errorf("ingest: %w", invalidNumber(3, "Flowrate", "")), "VAL002"},
		{"not found kind", notFound("statistics", 9), "BAT001"},
		{"wrapped sentinel not found", fmt.Errorf("lookup: %w", ErrNotFound), "BAT001"},
		{"empty batch", emptyBatch("report", 4), "BAT002"},
		{"busy", ErrTooManyUploads, "UPL002"},
		{"cancelled", fmt.Errorf("save: %w", context.Canceled), "UPL004"},
		{"deadline", internal("persist", context.DeadlineExceeded), "UPL005"},
		{"header only", badInput("parse", "empty file: no data rows"), "FILE005"},
		{"no file", badInput("upload", "no file provided"), "FILE004"},
		{"too large", badInput("upload", "file too large (limit 10 bytes)"), "FILE001"},
		{"invalid csv", &Error{Kind: KindBadInput, Op: "parse", Message: "invalid csv", Err: errors.New("bare quote")}, "FILE002"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004"},
		{"case insensitive", errors.New("DEADLOCK detected"), "DB007"},
		{"unknown", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.Equal(t, tt.want, got.Code)
			if tt.err != nil {
				assert.NotEmpty(t, got.Message)
				assert.NotEmpty(t, got.Action)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	assert.Equal(t, "", FormatUserError(nil))
	assert.Equal(t,
		"Batch not found (Code: BAT001). Only the five most recent uploads are kept. Upload the file again",
		FormatUserError(notFound("get batch", 3)))
}

func TestIsUserFacing(t *testing.T) {
	assert.False(t, IsUserFacing(nil))
	assert.False(t, IsUserFacing(errors.New("boom")))
	assert.True(t, IsUserFacing(ErrTooManyUploads))
	assert.True(t, IsUserFacing(missingColumns([]string{"Type"})))
}
