package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/classroster/internal/logging"
	"github.com/google/uuid"
)

// ServiceConfig holds the tunables of a Service. Zero values select defaults.
type ServiceConfig struct {
	DefaultScore   float64
	BehaviorLabels []string
	Settings       Settings // initial snapshot settings

	MaxConcurrent int
	MaxWait       time.Duration
	ResultTTL     time.Duration
	ResultCleanup time.Duration

	Archive ProjectArchive // nil disables named projects
}

// Service is the entry point used by the HTTP server and the CLI.
type Service struct {
	ingestor  *Ingestor
	validator *Validator
	store     *Store
	limiter   *IngestLimiter
	results   *ResultCache
	archive   ProjectArchive
}

// NewService wires the roster and project components.
func NewService(cfg ServiceConfig) *Service {
	labels := cfg.BehaviorLabels
	if labels == nil {
		labels = DefaultBehaviorLabels
	}
	normalizer := NewNormalizer(cfg.DefaultScore, NewBehaviorGrammar(labels...))

	return &Service{
		ingestor:  NewIngestor(normalizer),
		validator: NewValidator(cfg.DefaultScore),
		store:     NewStore(cfg.Settings),
		limiter:   NewIngestLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		results:   NewResultCache(cfg.ResultTTL, cfg.ResultCleanup),
		archive:   cfg.Archive,
	}
}

// ParseRoster decodes and ingests one uploaded spreadsheet. Accepted rosters
// are cached under their batch id.
func (s *Service) ParseRoster(ctx context.Context, fileName string, r io.Reader) (*Roster, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	batch := uuid.New()
	log := logging.WithFields(ctx, "upload_id", batch, "file", fileName)

	rows, decodeErr := DecodeSpreadsheet(r, fileName)
	roster, err := s.ingestor.Ingest(batch, rows, decodeErr)
	if err != nil {
		log.Warn("roster rejected",
			"kind", KindOf(err),
			"rows", len(rows),
			"issues", len(IssuesOf(err)),
			"error", err,
		)
		return nil, err
	}

	s.results.Put(roster)
	log.Info("roster accepted",
		"rows", len(roster.Students),
		"defaulted", roster.Defaulted(),
		"advisories", len(roster.Issues),
	)
	return roster, nil
}

// RosterResult returns a previously accepted roster.
func (s *Service) RosterResult(uploadID string) (*Roster, error) {
	return s.results.Get(uploadID)
}

// LoadProject validates body and makes it the current project state.
func (s *Service) LoadProject(ctx context.Context, body []byte) (*Snapshot, error) {
	snap, err := s.validator.Commit(s.store, body)
	log := logging.FromContext(ctx)
	if err != nil {
		log.Warn("project rejected", "kind", KindOf(err), "issues", len(IssuesOf(err)), "error", err)
		return nil, err
	}
	log.Info("project state replaced", "students", len(snap.Students), "groups", len(snap.Groups))
	return snap, nil
}

// CheckProject validates body without touching the current state.
func (s *Service) CheckProject(body []byte) (*Snapshot, error) {
	return s.validator.Validate(body)
}

// Current returns the live project snapshot.
func (s *Service) Current() *Snapshot {
	return s.store.Current()
}

// ArchiveEnabled reports whether named projects are available.
func (s *Service) ArchiveEnabled() bool {
	return s.archive != nil
}

// ListProjects lists archived projects.
func (s *Service) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.List(ctx)
}

// SaveProject archives the current snapshot under name, replacing any
// project of the same name.
func (s *Service) SaveProject(ctx context.Context, name string) (ProjectSummary, error) {
	if s.archive == nil {
		return ProjectSummary{}, ErrArchiveDisabled
	}
	if err := ValidateProjectName(name); err != nil {
		return ProjectSummary{}, err
	}

	snap := s.store.Current()
	data, err := json.Marshal(snap)
	if err != nil {
		return ProjectSummary{}, fmt.Errorf("encode project %q: %w", name, err)
	}
	rec := ProjectRecord{
		Name:      name,
		Data:      data,
		Students:  len(snap.Students),
		Groups:    len(snap.Groups),
		SavedFrom: ClientIPFromContext(ctx),
		SavedAt:   time.Now().UTC(),
	}
	if err := s.archive.Save(ctx, rec); err != nil {
		return ProjectSummary{}, fmt.Errorf("save project %q: %w", name, err)
	}

	logging.FromContext(ctx).Info("project saved", "name", name, "students", rec.Students, "bytes", len(data))
	return rec.Summary(), nil
}

// LoadNamedProject loads an archived project through the same validation as
// LoadProject. Documents that no longer validate are rejected and the
// current state is kept.
func (s *Service) LoadNamedProject(ctx context.Context, name string) (*Snapshot, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if err := ValidateProjectName(name); err != nil {
		return nil, err
	}
	rec, err := s.archive.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load project %q: %w", name, err)
	}
	return s.LoadProject(ctx, rec.Data)
}

// DeleteProject removes an archived project.
func (s *Service) DeleteProject(ctx context.Context, name string) error {
	if s.archive == nil {
		return ErrArchiveDisabled
	}
	if err := ValidateProjectName(name); err != nil {
		return err
	}
	if err := s.archive.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete project %q: %w", name, err)
	}
	logging.FromContext(ctx).Info("project deleted", "name", name)
	return nil
}

// CachedRosters returns how many accepted rosters can still be fetched by id.
func (s *Service) CachedRosters() int {
	return s.results.Len()
}

// LimiterStatus reports decode slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Shutdown waits for in-flight decodes and closes the archive.
func (s *Service) Shutdown(ctx context.Context) error {
	drainErr := s.limiter.WaitForDrain(ctx)
	if s.archive == nil {
		return drainErr
	}
	return errors.Join(drainErr, s.archive.Close())
}
