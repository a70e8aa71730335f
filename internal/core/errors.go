package core

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why an ingestion or project load was rejected.
type Kind string

const (
	// KindMalformedInput: the input could not be parsed into the expected shape.
	KindMalformedInput Kind = "MalformedInput"
	// KindValidationFailed: required fields are missing on one or more entities.
	KindValidationFailed Kind = "ValidationFailed"
	// KindReferentialIntegrity: an id reference points to an entity that does not exist.
	KindReferentialIntegrity Kind = "ReferentialIntegrityError"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrMalformedInput       = &Error{Kind: KindMalformedInput}
	ErrValidationFailed     = &Error{Kind: KindValidationFailed}
	ErrReferentialIntegrity = &Error{Kind: KindReferentialIntegrity}
)

// Error is a rejection of a whole operation. Issues carries per-entity
// diagnostics; Err is the underlying cause for malformed input.
type Error struct {
	Kind   Kind
	Op     string // "ingest", "project" ...
	Detail string
	Issues []Issue
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors (no Op/Detail/Err) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Detail == "" && t.Err == nil && t.Issues == nil
}

// KindOf returns the rejection kind carried by err, or "" if err is not a rejection.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IssuesOf returns the diagnostics carried by err, if any.
func IssuesOf(err error) []Issue {
	var e *Error
	if errors.As(err, &e) {
		return e.Issues
	}
	return nil
}

func malformed(op string, cause error, format string, args ...any) *Error {
	return &Error{Kind: KindMalformedInput, Op: op, Detail: fmt.Sprintf(format, args...), Err: cause}
}

// IssueKind classifies a field-level finding.
type IssueKind string

const (
	// IssueMissingRequiredField is the only fatal kind: it rejects the enclosing row or payload.
	IssueMissingRequiredField IssueKind = "MissingRequiredField"
	// IssueDefaultedField: an invalid or missing value was replaced by a default.
	IssueDefaultedField IssueKind = "DefaultedField"
	// IssueMalformedGrammar: an encoded value did not parse; it was kept as-is.
	IssueMalformedGrammar IssueKind = "MalformedGrammar"
	// IssueDanglingReference: an id reference has no target in the payload.
	IssueDanglingReference IssueKind = "DanglingReference"
	// IssueDuplicateID: two entities of the same type share an id.
	IssueDuplicateID IssueKind = "DuplicateID"
)

// Issue is a single finding about one field of one entity.
type Issue struct {
	Line    int       `json:"line,omitempty"`   // spreadsheet line, for roster issues
	Entity  string    `json:"entity,omitempty"` // "student s1", "group g2", for snapshot issues
	Field   string    `json:"field,omitempty"`
	Kind    IssueKind `json:"kind"`
	Value   string    `json:"value,omitempty"`
	Message string    `json:"message"`
}

// Fatal reports whether the issue rejects its entity.
func (i Issue) Fatal() bool {
	return i.Kind == IssueMissingRequiredField
}

func (i Issue) String() string {
	var where string
	switch {
	case i.Line > 0:
		where = fmt.Sprintf("line %d", i.Line)
	case i.Entity != "":
		where = i.Entity
	}
	if i.Field != "" {
		if where != "" {
			where += " "
		}
		where += i.Field
	}
	if where == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", where, i.Kind, i.Message)
}
