package web

// handlers_common.go holds request parsing shared by the page and API
// handlers.

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/JonMunkholm/sheetview/internal/core"
)

// maxFormMemory is the multipart memory budget before parts spill to disk.
const maxFormMemory = 8 << 20

// loadRequest is a file reference or an uploaded file.
type loadRequest struct {
	FileURL  string
	FileName string
	Data     []byte
}

func (l loadRequest) isUpload() bool {
	return l.Data != nil
}

// parseLoadForm reads a load form. A non-empty "file" part wins over the
// fileUrl field. Uploads larger than maxBytes fail with ErrSourceTooLarge.
func parseLoadForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (loadRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+maxFormMemory)

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return loadRequest{}, formError(err)
		}
	} else if err := r.ParseForm(); err != nil {
		return loadRequest{}, formError(err)
	}

	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["file"]; len(files) > 0 && files[0].Size > 0 {
			fh := files[0]
			if fh.Size > maxBytes {
				return loadRequest{}, core.ErrSourceTooLarge
			}
			f, err := fh.Open()
			if err != nil {
				return loadRequest{}, fmt.Errorf("open upload: %w", err)
			}
			defer f.Close()

			data, err := io.ReadAll(f)
			if err != nil {
				return loadRequest{}, fmt.Errorf("read upload: %w", err)
			}
			return loadRequest{FileName: path.Base(fh.Filename), Data: data}, nil
		}
	}

	return loadRequest{FileURL: strings.TrimSpace(r.FormValue("fileUrl"))}, nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return core.ErrSourceTooLarge
	}
	return fmt.Errorf("parse form: %w", err)
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// filterInputFromForm reads the four filter fields.
func filterInputFromForm(r *http.Request) core.FilterInput {
	return core.FilterInput{
		PrimaryColumn:    r.FormValue("primaryColumn"),
		OperationColumns: r.FormValue("operationColumns"),
		OperationType:    r.FormValue("operationType"),
		Operation:        r.FormValue("operation"),
	}
}

// exportInputFromQuery reads filename and format from the query string.
func exportInputFromQuery(r *http.Request) core.ExportInput {
	q := r.URL.Query()
	return core.ExportInput{
		Filename: q.Get("filename"),
		Format:   q.Get("format"),
	}
}

// contentDisposition builds an attachment header for a sanitized name.
func contentDisposition(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
