package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	// ErrProjectNotFound is returned by archives for unknown names.
	ErrProjectNotFound = errors.New("project not found")
	// ErrArchiveDisabled is returned when no archive backend is configured.
	ErrArchiveDisabled = errors.New("archive not configured")
	// ErrInvalidProjectName is returned for names failing ValidateProjectName.
	ErrInvalidProjectName = errors.New("invalid project name")
)

var projectNameRe = regexp.MustCompile(`^[\p{L}\p{N} _.-]{1,100}$`)

// ValidateProjectName checks that name is usable as an archive key.
func ValidateProjectName(name string) error {
	if !projectNameRe.MatchString(name) || name[0] == '.' {
		return fmt.Errorf("%w: %q", ErrInvalidProjectName, name)
	}
	return nil
}

// ProjectRecord is one archived project document.
type ProjectRecord struct {
	Name      string
	Data      []byte // snapshot JSON, as accepted by Validator.Validate
	Students  int
	Groups    int
	SavedFrom string // client address, when known
	SavedAt   time.Time
}

// Summary returns the listing view of r.
func (r ProjectRecord) Summary() ProjectSummary {
	return ProjectSummary{
		Name:      r.Name,
		Students:  r.Students,
		Groups:    r.Groups,
		SizeBytes: len(r.Data),
		SavedAt:   r.SavedAt,
	}
}

// ProjectArchive persists named project documents. Implementations return
// ErrProjectNotFound (possibly wrapped) for unknown names.
type ProjectArchive interface {
	Save(ctx context.Context, rec ProjectRecord) error
	Load(ctx context.Context, name string) (ProjectRecord, error)
	List(ctx context.Context) ([]ProjectSummary, error)
	Delete(ctx context.Context, name string) error
	Close() error
}
