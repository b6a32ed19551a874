package handlers

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"nutrilog/internal/catalog"
	applog "nutrilog/internal/log"
)

// Archiver stores an encoded snapshot under name and reports where it went.
type Archiver interface {
	Store(ctx context.Context, name string, body []byte) (string, error)
}

var (
	sessionManager *scs.SessionManager
	service        *catalog.Service
	archiver       Archiver
)

func init() {
	// Drafts are kept in the session store, which gob-encodes its values.
	gob.Register(catalog.Draft{})
}

// Configure installs the shared dependencies used by the HTTP handlers. A nil
// archiver disables snapshot archiving.
func Configure(sm *scs.SessionManager, svc *catalog.Service, arch Archiver) {
	sessionManager = sm
	service = svc
	archiver = arch
}

// flexText accepts a JSON string or number and keeps its text form, so form
// fields can be posted either way.
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*f = flexText(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*f = flexText(number.String())
	return nil
}

func requireService(w http.ResponseWriter, r *http.Request) bool {
	if service == nil {
		applog.Debug(r.Context(), "catalog request without service", "path", r.URL.Path)
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return false
	}
	return true
}

func idParam(r *http.Request, name string) (uint, bool) {
	value, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || value == 0 {
		applog.Debug(r.Context(), "invalid identifier", "param", name, "value", chi.URLParam(r, name))
		return 0, false
	}
	return uint(value), true
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeServiceError maps catalog errors onto HTTP statuses. Anything that is
// not a caller mistake is logged and reported as message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var (
		validation *catalog.ValidationError
		notFound   *catalog.NotFoundError
		format     *catalog.FormatError
	)
	switch {
	case errors.As(err, &validation):
		writeJSONError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &notFound):
		writeJSONError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &format):
		writeJSONError(w, http.StatusBadRequest, format.Error())
	default:
		applog.Error(r.Context(), message, "error", err)
		writeJSONError(w, http.StatusInternalServerError, message)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(message)})
}
