package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"nutrilog/internal/catalog"
	applog "nutrilog/internal/log"
)

const maxImportBytes = 10 << 20

// Export downloads the catalog as a snapshot file.
func Export(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	snap := service.Export()
	payload, err := catalog.EncodeSnapshot(snap)
	if err != nil {
		writeServiceError(w, r, err, "unable to export catalog")
		return
	}
	name := snap.FileName()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		applog.Error(r.Context(), "failed to write snapshot", "error", err)
	}
}

// Import restores a snapshot posted as the request body or as the "file"
// field of a multipart form.
func Import(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	payload, err := readImportPayload(r)
	if err != nil {
		applog.Debug(r.Context(), "unreadable import payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to read snapshot file")
		return
	}
	if err := service.Import(r.Context(), payload); err != nil {
		writeServiceError(w, r, err, "unable to import catalog")
		return
	}
	writeJSON(w, http.StatusOK, service.Stats())
}

func readImportPayload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// Archive uploads a snapshot to the configured archive.
func Archive(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	if archiver == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "snapshot archive is not configured")
		return
	}
	snap := service.Export()
	payload, err := catalog.EncodeSnapshot(snap)
	if err != nil {
		writeServiceError(w, r, err, "unable to export catalog")
		return
	}
	location, err := archiver.Store(r.Context(), snap.FileName(), payload)
	if err != nil {
		applog.Error(r.Context(), "snapshot archive failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "unable to archive snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"location": location})
}
