package core

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an ingestion or query failure.
type Kind int

const (
	KindInternal Kind = iota
	KindBadInput
	KindNotFound
	KindEmptyBatch
)

func (k Kind) String() string {
	switch k {
	case KindBadInput:
		return "bad_input"
	case KindNotFound:
		return "not_found"
	case KindEmptyBatch:
		return "empty_batch"
	default:
		return "internal"
	}
}

var (
	// ErrNotFound is returned when a batch id does not exist.
	ErrNotFound = errors.New("batch not found")

	// ErrEmptyBatch is returned when statistics or a report are requested
	// for a batch that has no equipment records.
	ErrEmptyBatch = errors.New("batch has no equipment records")
)

// Error is the structured failure returned by Service operations.
type Error struct {
	Kind    Kind
	Op      string
	Message string

	// Missing-column rejection
	Required []string
	Missing  []string

	// Row-level parse failure, Line is 1-based and counts the header
	Line   int
	Column string
	Value  string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Kind.String())
	}
	if e.Message != "" && e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match an Error against the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrEmptyBatch:
		return e.Kind == KindEmptyBatch
	}
	return false
}

// KindOf reports the Kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrEmptyBatch):
		return KindEmptyBatch
	}
	return KindInternal
}

// NewBadInput returns a BadInput error for a rejected request.
func NewBadInput(op, msg string) error {
	return badInput(op, msg)
}

func badInput(op, msg string) *Error {
	return &Error{Kind: KindBadInput, Op: op, Message: msg}
}

func internal(op string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

func notFound(op string, id int64) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf("batch %d not found", id)}
}

func emptyBatch(op string, id int64) *Error {
	return &Error{Kind: KindEmptyBatch, Op: op, Message: fmt.Sprintf("batch %d has no equipment records", id)}
}

// missingColumns builds the rejection for a header lacking required columns.
func missingColumns(missing []string) *Error {
	return &Error{
		Kind:     KindBadInput,
		Op:       "validate",
		Message:  fmt.Sprintf("missing required column(s) %s; required: %s", quoteList(missing), quoteList(RequiredColumns)),
		Required: append([]string(nil), RequiredColumns...),
		Missing:  missing,
	}
}

// invalidNumber builds the rejection for an unparseable numeric cell.
func invalidNumber(line int, column, value string) *Error {
	return &Error{
		Kind:    KindBadInput,
		Op:      "parse",
		Message: fmt.Sprintf("invalid number %q in column %q on line %d", value, column, line),
		Line:    line,
		Column:  column,
		Value:   value,
	}
}

func quoteList(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = fmt.Sprintf("%q", c)
	}
	return "[" + strings.Join(q, ", ") + "]"
}
