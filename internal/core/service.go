package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fetcher resolves a file reference (URL or path) to its bytes.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Codec converts between file bytes and workbooks.
type Codec interface {
	Decode(name string, data []byte) (*Workbook, error)
	Encode(w io.Writer, sheet *Sheet, format ExportFormat) error
}

// Recorder receives operational events. See internal/metrics.
type Recorder interface {
	ObserveLoad(result string, d time.Duration)
	ObserveFilter(spec FilterSpec, kept int)
	ObserveExport(format ExportFormat, rows int)
	SetSessions(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveLoad(string, time.Duration) {}
func (nopRecorder) ObserveFilter(FilterSpec, int)     {}
func (nopRecorder) ObserveExport(ExportFormat, int)   {}
func (nopRecorder) SetSessions(int)                   {}

// ServiceConfig holds Service limits. Zero values fall back to defaults.
type ServiceConfig struct {
	MaxSessions        int
	MaxConcurrentLoads int
	MaxLoadWait        time.Duration
}

// DefaultMaxSessions caps open sessions when ServiceConfig leaves it unset.
const DefaultMaxSessions = 256

// Service owns viewer sessions and the collaborators that load and export
// spreadsheets.
type Service struct {
	fetcher  Fetcher
	codec    Codec
	limiter  *LoadLimiter
	recorder Recorder
	now      func() time.Time

	maxSessions int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a Service. recorder may be nil.
func NewService(fetcher Fetcher, codec Codec, recorder Recorder, cfg ServiceConfig) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	return &Service{
		fetcher:     fetcher,
		codec:       codec,
		limiter:     NewLoadLimiter(cfg.MaxConcurrentLoads, cfg.MaxLoadWait),
		recorder:    recorder,
		now:         time.Now,
		maxSessions: cfg.MaxSessions,
		sessions:    make(map[string]*Session),
	}
}

// Open fetches location, parses it and starts a new session.
func (s *Service) Open(ctx context.Context, location string) (*Session, error) {
	wb, src, err := s.fetchAndDecode(ctx, location)
	if err != nil {
		return nil, err
	}
	return s.register(wb, src)
}

// OpenUpload parses an uploaded file and starts a new session.
func (s *Service) OpenUpload(ctx context.Context, name string, data []byte) (*Session, error) {
	wb, src, err := s.decode(ctx, name, data)
	if err != nil {
		return nil, err
	}
	return s.register(wb, src)
}

// Reload loads location into an existing session. If fetching or parsing
// fails the session keeps its previous workbook and view.
func (s *Service) Reload(ctx context.Context, id, location string) (*Session, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	wb, src, err := s.fetchAndDecode(ctx, location)
	if err != nil {
		return nil, err
	}
	if err := sess.Reload(wb, src); err != nil {
		return nil, err
	}
	slog.Info("session reloaded", "session_id", id, "source", src.Location, "sheets", wb.Len())
	return sess, nil
}

// ReloadUpload replaces an existing session's workbook with an uploaded
// file. Failure leaves the session as it was.
func (s *Service) ReloadUpload(ctx context.Context, id, name string, data []byte) (*Session, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	wb, src, err := s.decode(ctx, name, data)
	if err != nil {
		return nil, err
	}
	if err := sess.Reload(wb, src); err != nil {
		return nil, err
	}
	slog.Info("session reloaded", "session_id", id, "source", src.Location, "sheets", wb.Len())
	return sess, nil
}

func (s *Service) fetchAndDecode(ctx context.Context, location string) (*Workbook, Source, error) {
	if location == "" {
		return nil, Source{}, ErrEmptySource
	}

	start := s.now()
	data, err := s.fetcher.Fetch(ctx, location)
	if err != nil {
		s.recorder.ObserveLoad("fetch_error", s.now().Sub(start))
		slog.Warn("workbook fetch failed", "source", location, "error", err)
		return nil, Source{}, &LoadError{Source: location, Stage: "fetch", Err: err}
	}
	return s.decode(ctx, location, data)
}

func (s *Service) decode(ctx context.Context, name string, data []byte) (*Workbook, Source, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, Source{}, err
	}
	defer s.limiter.Release()

	start := s.now()
	wb, err := s.codec.Decode(name, data)
	if err == nil && wb.Len() == 0 {
		err = ErrNoSheets
	}
	if err != nil {
		s.recorder.ObserveLoad("parse_error", s.now().Sub(start))
		slog.Warn("workbook parse failed", "source", name, "bytes", len(data), "error", err)
		return nil, Source{}, &LoadError{Source: name, Stage: "parse", Err: err}
	}

	s.recorder.ObserveLoad("ok", s.now().Sub(start))
	slog.Info("workbook loaded",
		"source", name,
		"bytes", len(data),
		"sheets", wb.Len(),
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	return wb, Source{Location: name, Size: int64(len(data)), LoadedAt: s.now()}, nil
}

func (s *Service) register(wb *Workbook, src Source) (*Session, error) {
	sess, err := newSession(uuid.NewString(), wb, src, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		return nil, ErrTooManySessions
	}
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.recorder.SetSessions(n)
	slog.Info("session opened", "session_id", sess.ID, "source", src.Location)
	return sess, nil
}

// Session returns a session by ID and marks it as used.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Close discards a session.
func (s *Service) Close(id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	s.recorder.SetSessions(n)
	slog.Info("session closed", "session_id", id)
	return nil
}

// SessionCount returns the number of open sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SelectSheet switches a session to another sheet.
func (s *Service) SelectSheet(id, name string) (SessionView, error) {
	sess, err := s.Session(id)
	if err != nil {
		return SessionView{}, err
	}
	if err := sess.SelectSheet(name); err != nil {
		return SessionView{}, err
	}
	return sess.Snapshot(), nil
}

// ApplyFilter validates user input and filters the session's current sheet.
// On a validation error the previous view is kept.
func (s *Service) ApplyFilter(id string, in FilterInput) (SessionView, error) {
	sess, err := s.Session(id)
	if err != nil {
		return SessionView{}, err
	}
	spec, err := ParseFilterInput(in)
	if err != nil {
		return SessionView{}, err
	}

	kept := sess.ApplyFilter(spec)
	s.recorder.ObserveFilter(spec, kept)
	slog.Debug("filter applied", "session_id", id, "filter", spec.String(), "rows", kept)
	return sess.Snapshot(), nil
}

// ClearFilter shows the full sheet again.
func (s *Service) ClearFilter(id string) (SessionView, error) {
	sess, err := s.Session(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.ClearFilter()
	return sess.Snapshot(), nil
}

// ExportFile is an encoded download.
type ExportFile struct {
	Name        string
	Format      ExportFormat
	ContentType string
	Data        []byte
}

// Export encodes the session's current view.
func (s *Service) Export(id string, in ExportInput) (*ExportFile, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	format, name, err := ParseExportInput(in)
	if err != nil {
		return nil, err
	}

	sheet := sess.Current()
	var buf bytes.Buffer
	if err := s.codec.Encode(&buf, sheet, format); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	s.recorder.ObserveExport(format, sheet.Len())
	slog.Info("sheet exported", "session_id", id, "format", format, "rows", sheet.Len(), "bytes", buf.Len())
	return &ExportFile{
		Name:        format.FileName(name),
		Format:      format,
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// LoadStatus reports the load limiter state.
func (s *Service) LoadStatus() LoadLimiterStatus {
	return s.limiter.Status()
}

// WaitForLoads blocks until in-flight loads finish or ctx is done.
func (s *Service) WaitForLoads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
