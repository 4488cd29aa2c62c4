package web

// handlers_api.go is the JSON API over viewer sessions. Responses carry the
// same SessionView the HTML pages render.

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/sheetview/internal/core"
)

// maxJSONBody bounds API request bodies that are not uploads.
const maxJSONBody = 1 << 20

var validate = validator.New()

type openSessionRequest struct {
	FileURL string `json:"fileUrl" validate:"required"`
}

type selectSheetRequest struct {
	Sheet string `json:"sheet" validate:"required"`
}

// apiOpenSession creates a session from a JSON {"fileUrl": ...} body or a
// multipart upload.
func (s *Server) apiOpenSession(w http.ResponseWriter, r *http.Request) {
	var (
		sess *core.Session
		err  error
	)
	if isMultipart(r) {
		var req loadRequest
		req, err = parseLoadForm(w, r, s.cfg.Source.MaxBytes)
		switch {
		case err != nil:
		case req.isUpload():
			sess, err = s.service.OpenUpload(r.Context(), req.FileName, req.Data)
		default:
			sess, err = s.service.Open(r.Context(), req.FileURL)
		}
	} else {
		var body openSessionRequest
		if err = decodeJSON(w, r, &body); err == nil {
			sess, err = s.service.Open(r.Context(), body.FileURL)
		}
	}
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, r, http.StatusCreated, sess.Snapshot())
}

func (s *Server) apiGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Session(sessionID(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, sess.Snapshot())
}

func (s *Server) apiCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Close(sessionID(r)); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiSelectSheet(w http.ResponseWriter, r *http.Request) {
	var body selectSheetRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	view, err := s.service.SelectSheet(sessionID(r), body.Sheet)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

// apiApplyFilter takes the same four fields as the filter form. Validation
// happens in the service so both surfaces report identical errors.
func (s *Server) apiApplyFilter(w http.ResponseWriter, r *http.Request) {
	var in core.FilterInput
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		respondError(w, r, errBadJSON, http.StatusBadRequest)
		return
	}
	view, err := s.service.ApplyFilter(sessionID(r), in)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) apiClearFilter(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.ClearFilter(sessionID(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

var errBadJSON = errors.New("invalid JSON request body")

// decodeJSON decodes and validates a small JSON body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return errBadJSON
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return requestFieldError{field: verrs[0].Field()}
		}
		return err
	}
	return nil
}

// requestFieldError reports a missing required API field.
type requestFieldError struct {
	field string
}

func (e requestFieldError) Error() string {
	return "missing required field " + e.field
}

// Is maps the missing field onto the matching service error so MapError
// and statusFor treat it like the form equivalent.
func (e requestFieldError) Is(target error) bool {
	switch e.field {
	case "FileURL":
		return target == core.ErrEmptySource
	case "Sheet":
		return target == core.ErrSheetNotFound
	}
	return false
}

// writeJSON renders v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}
