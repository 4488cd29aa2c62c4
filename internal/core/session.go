package core

import (
	"sync"
	"time"
)

// Session is the state of one viewer: the loaded workbook, the selected
// sheet and the filtered view derived from it.
//
// Every method holds the session lock for its whole duration, so reactions
// to user actions never interleave.
type Session struct {
	ID string

	mu         sync.Mutex
	source     Source
	workbook   *Workbook
	sheetName  string
	full       *Sheet
	view       *Sheet
	filter     *FilterSpec
	createdAt  time.Time
	lastAccess time.Time
}

// SessionView is a consistent copy of a session's display state.
type SessionView struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Sheets    []SheetSummary `json:"sheets"`
	SheetName string         `json:"sheet"`
	Columns   []string       `json:"columns"`
	Filter    *FilterSpec    `json:"filter,omitempty"`
	TotalRows int            `json:"totalRows"`
	ShownRows int            `json:"shownRows"`
	Table     DisplayTable   `json:"table"`
}

func newSession(id string, wb *Workbook, src Source, now time.Time) (*Session, error) {
	s := &Session{ID: id, createdAt: now, lastAccess: now}
	if err := s.reload(wb, src); err != nil {
		return nil, err
	}
	return s, nil
}

// reload swaps in a new workbook and shows its first sheet unfiltered.
// On error the session is left untouched.
func (s *Session) reload(wb *Workbook, src Source) error {
	first := wb.First()
	if first == nil {
		return ErrNoSheets
	}
	s.source = src
	s.workbook = wb
	s.resetTo(first)
	return nil
}

// resetTo makes sheet the new baseline and drops any active filter.
func (s *Session) resetTo(sheet *Sheet) {
	s.sheetName = sheet.Name
	s.full = sheet
	s.view = sheet
	s.filter = nil
}

// Reload replaces the workbook. Exported for callers that parse outside the
// Service.
func (s *Session) Reload(wb *Workbook, src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(wb, src)
}

// SelectSheet switches to the named sheet and clears the active filter.
// An unknown name returns *SheetNotFoundError and changes nothing.
func (s *Session) SelectSheet(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.workbook.Sheet(name)
	if err != nil {
		return err
	}
	s.resetTo(sheet)
	return nil
}

// ApplyFilter recomputes the view from the full sheet. Filters never stack:
// each call starts again from the unfiltered rows. Returns the number of
// rows kept.
func (s *Session) ApplyFilter(spec FilterSpec) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.view = Filter(s.full, spec)
	s.filter = &spec
	return s.view.Len()
}

// ClearFilter restores the full sheet.
func (s *Session) ClearFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = s.full
	s.filter = nil
}

// Current returns the sheet currently on display.
func (s *Session) Current() *Sheet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Workbook returns the loaded workbook.
func (s *Session) Workbook() *Workbook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workbook
}

// Snapshot renders the current state.
func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SessionView{
		ID:        s.ID,
		Source:    s.source.Location,
		Sheets:    Summarize(s.workbook),
		SheetName: s.sheetName,
		Columns:   append([]string(nil), s.full.Columns...),
		TotalRows: s.full.Len(),
		ShownRows: s.view.Len(),
		Table:     Render(s.view),
	}
	if s.filter != nil {
		f := *s.filter
		v.Filter = &f
	}
	return v
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}
