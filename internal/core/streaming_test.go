package core

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("Type,Flowrate")...),
			expected: "Type,Flowrate",
		},
		{
			name:     "file without BOM",
			input:    []byte("Type,Flowrate"),
			expected: "Type,Flowrate",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewBOMSkippingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestStreamingUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"ascii", []byte("Pump,10"), "Pump,10"},
		{"valid multibyte", []byte("Kühler,°C"), "Kühler,°C"},
		{"invalid byte", []byte{'a', 0xFF, 'b'}, "a?b"},
		{"truncated rune at EOF", []byte{'a', 0xC3}, "a?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewStreamingUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestStreamingUTF8Sanitizer_SplitRune(t *testing.T) {
	// One byte per Read forces every multi-byte rune across a read boundary.
	input := []byte("°C Kühler")
	r := NewStreamingUTF8Sanitizer(iotest.OneByteReader(bytes.NewReader(input)))

	result, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != string(input) {
		t.Errorf("got %q, want %q", result, input)
	}
}

func TestSanitizeSource_Counts(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n")...)
	r := SanitizeSource(bytes.NewReader(input))

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "a,b\n" {
		t.Errorf("got %q", out)
	}
	if r.BytesRead != 4 {
		t.Errorf("BytesRead = %d, want 4", r.BytesRead)
	}
}
