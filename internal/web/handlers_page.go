package web

// handlers_page.go serves the browser UI. Form posts follow
// post/redirect/get; HTMX requests get the #viewer fragment back instead.

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/web/templates"
)

// handleIndex shows the landing page. A ?fileUrl= link, or the configured
// default source, is prefilled and posted to /load by the page itself, so
// GET / never opens a session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	fileURL := r.URL.Query().Get("fileUrl")
	if fileURL == "" {
		fileURL = s.cfg.Source.DefaultSource
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Landing(fileURL, fileURL != "", nil).Render(r.Context(), w); err != nil {
		requestLogger(r).Error("render landing", "error", err)
	}
}

// handleLoad opens an uploaded file or a fileUrl form field.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	req, err := parseLoadForm(w, r, s.cfg.Source.MaxBytes)
	if err != nil {
		s.renderLanding(w, r, "", err)
		return
	}

	var sess *core.Session
	if req.isUpload() {
		sess, err = s.service.OpenUpload(r.Context(), req.FileName, req.Data)
	} else {
		sess, err = s.service.Open(r.Context(), req.FileURL)
	}
	if err != nil {
		s.renderLanding(w, r, req.FileURL, err)
		return
	}
	redirectToSession(w, r, sess.ID)
}

// handleReload loads a different file into the current session. On failure
// the previous sheet and filter stay on screen.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	req, err := parseLoadForm(w, r, s.cfg.Source.MaxBytes)
	if err == nil {
		if req.isUpload() {
			_, err = s.service.ReloadUpload(r.Context(), id, req.FileName, req.Data)
		} else {
			_, err = s.service.Reload(r.Context(), id, req.FileURL)
		}
	}
	if err != nil {
		s.renderViewerError(w, r, err)
		return
	}
	s.afterUpdate(w, r)
}

// handleView renders the current state of a session.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Session(sessionID(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	s.renderViewer(w, r, sess.Snapshot(), nil, http.StatusOK)
}

// handleSelectSheet switches sheets and drops the active filter.
func (s *Server) handleSelectSheet(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.SelectSheet(sessionID(r), r.FormValue("sheet")); err != nil {
		s.renderViewerError(w, r, err)
		return
	}
	s.afterUpdate(w, r)
}

// handleFilter applies the filter form.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.ApplyFilter(sessionID(r), filterInputFromForm(r))
	if err != nil {
		s.renderViewerError(w, r, err)
		return
	}
	requestLogger(r).Debug("filter applied", "filter", view.Filter.String(), "rows", view.ShownRows)
	s.afterUpdate(w, r)
}

// handleResetFilter shows the unfiltered sheet again.
func (s *Server) handleResetFilter(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.ClearFilter(sessionID(r)); err != nil {
		s.renderViewerError(w, r, err)
		return
	}
	s.afterUpdate(w, r)
}

// handleExport downloads the current view. Shared by the page and the API.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	file, err := s.service.Export(sessionID(r), exportInputFromQuery(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(file.Data); err != nil {
		requestLogger(r).Warn("export write failed", "file", file.Name, "error", err)
	}
}

// handleHealth reports liveness with session and load counts.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.service.SessionCount(),
		"loads":    s.service.LoadStatus(),
	})
}

// afterUpdate answers a successful form post: the fresh fragment for HTMX,
// a redirect back to the session page otherwise.
func (s *Server) afterUpdate(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if !isHTMX(r) {
		http.Redirect(w, r, "/s/"+url.PathEscape(id), http.StatusSeeOther)
		return
	}
	sess, err := s.service.Session(id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	s.renderViewer(w, r, sess.Snapshot(), nil, http.StatusOK)
}

// renderViewerError keeps the previous display and shows err above it. A
// missing session has no display to keep and gets a plain error.
func (s *Server) renderViewerError(w http.ResponseWriter, r *http.Request, err error) {
	sess, lookupErr := s.service.Session(sessionID(r))
	if lookupErr != nil {
		respondError(w, r, lookupErr, statusFor(lookupErr))
		return
	}
	status := statusFor(err)
	requestLogger(r).Warn("viewer action rejected", "status", status, "error", err)
	s.renderViewer(w, r, sess.Snapshot(), noticeFor(err), status)
}

func (s *Server) renderViewer(w http.ResponseWriter, r *http.Request, view core.SessionView, notice *templates.Notice, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	c := templates.ViewerPage(view, notice)
	if isHTMX(r) {
		c = templates.Viewer(view, notice)
	}
	if err := c.Render(r.Context(), w); err != nil {
		requestLogger(r).Error("render viewer", "error", err)
	}
}

// renderLanding shows a failed load. The auto-load form on the landing page
// is replaced by the notice alone; everything else gets the full page.
func (s *Server) renderLanding(w http.ResponseWriter, r *http.Request, fileURL string, err error) {
	status := statusFor(err)
	requestLogger(r).Warn("load failed", "source", fileURL, "status", status, "error", err)

	notice := noticeFor(err)
	c := templates.Landing(fileURL, false, notice)
	if isHTMX(r) {
		c = templates.ErrorAlert(notice.Message, notice.Action, notice.Code)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		requestLogger(r).Error("render landing", "error", err)
	}
}

// redirectToSession sends the browser to a session page. HTMX follows
// HX-Redirect instead of a 3xx.
func redirectToSession(w http.ResponseWriter, r *http.Request, id string) {
	target := "/s/" + url.PathEscape(id)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
