package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nutrilog/internal/catalog"
)

type fakeArchiver struct {
	names []string
	body  []byte
	err   error
}

func (f *fakeArchiver) Store(_ context.Context, name string, body []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	f.body = body
	return "s3://bucket/snapshots/" + name, nil
}

func withTestArchiver(t *testing.T, arch Archiver) {
	t.Helper()
	original := archiver
	archiver = arch
	t.Cleanup(func() { archiver = original })
}

const sampleSnapshot = `{
  "foods": [{"id": 7, "name": "Oats", "serving_size": 40, "serving_unit": "g", "calories": 150}],
  "recipes": [{"id": 3, "name": "Porridge", "total_servings": 1, "calories": 150,
    "ingredients": [{"food": {"id": 7, "name": "Oats", "serving_size": 40, "serving_unit": "g", "calories": 150}, "quantity": 40, "unit": "g"}]}],
  "exportDate": "2024-03-01T10:00:00.000Z",
  "version": "1.0"
}`

func TestExportSetsAttachmentHeader(t *testing.T) {
	withTestService(t)
	createFood(t, map[string]any{"name": "Rice", "serving_size": 100, "calories": 130})

	w := httptest.NewRecorder()
	Export(w, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(disposition, `attachment; filename="nutrition-database-`) || !strings.HasSuffix(disposition, `.json"`) {
		t.Fatalf("unexpected Content-Disposition %q", disposition)
	}
	snap, err := catalog.DecodeSnapshot(w.Body.Bytes())
	if err != nil {
		t.Fatalf("export is not a valid snapshot: %v", err)
	}
	if len(snap.Foods) != 1 || len(snap.Recipes) != 0 || snap.Version != catalog.SnapshotVersion {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if want := `attachment; filename="` + snap.FileName() + `"`; disposition != want {
		t.Fatalf("Content-Disposition = %q, want the exportDate day %q", disposition, want)
	}
}

func TestImportReplacesCatalog(t *testing.T) {
	svc := withTestService(t)
	createFood(t, map[string]any{"name": "Rice", "serving_size": 100, "calories": 130})

	w := httptest.NewRecorder()
	Import(w, httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(sampleSnapshot)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stats := decodeBody[catalog.Stats](t, w); stats.Foods != 1 || stats.Recipes != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	food, ok := svc.Food(7)
	if !ok || food.Name != "Oats" {
		t.Fatalf("expected imported food to keep its id, got %+v (found=%v)", food, ok)
	}
	if recipe, ok := svc.Recipe(3); !ok || len(recipe.Ingredients) != 1 {
		t.Fatalf("expected imported recipe with its ingredient, got %+v", recipe)
	}
}

func TestImportAcceptsMultipartUpload(t *testing.T) {
	svc := withTestService(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "nutrition-database-2024-03-01.json")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(sampleSnapshot)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("failed to close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	Import(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stats := svc.Stats(); stats.Foods != 1 || stats.Recipes != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestImportRejectsMalformedSnapshot(t *testing.T) {
	svc := withTestService(t)
	createFood(t, map[string]any{"name": "Rice", "serving_size": 100, "calories": 130})

	tests := []struct {
		name    string
		payload string
	}{
		{"missing recipes", `{"foods": []}`},
		{"null foods", `{"foods": null, "recipes": []}`},
		{"not json", `foods,recipes`},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		Import(w, httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(tt.payload)))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tt.name, w.Code)
		}
	}
	if len(svc.Foods()) != 1 {
		t.Fatal("rejected imports must leave the catalog untouched")
	}
}

func TestArchive(t *testing.T) {
	withTestService(t)

	withTestArchiver(t, nil)
	w := httptest.NewRecorder()
	Archive(w, httptest.NewRequest(http.MethodPost, "/api/archive", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without archive, got %d", w.Code)
	}

	fake := &fakeArchiver{}
	withTestArchiver(t, fake)
	w = httptest.NewRecorder()
	Archive(w, httptest.NewRequest(http.MethodPost, "/api/archive", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[map[string]string](t, w)
	if len(fake.names) != 1 || resp["location"] != "s3://bucket/snapshots/"+fake.names[0] {
		t.Fatalf("unexpected archive response %v (names %v)", resp, fake.names)
	}
	archived, err := catalog.DecodeSnapshot(fake.body)
	if err != nil {
		t.Fatalf("archived body is not a snapshot: %v", err)
	}
	if fake.names[0] != archived.FileName() {
		t.Fatalf("archive name %q does not match exportDate %q", fake.names[0], archived.ExportDate)
	}

	withTestArchiver(t, &fakeArchiver{err: errors.New("bucket unavailable")})
	w = httptest.NewRecorder()
	Archive(w, httptest.NewRequest(http.MethodPost, "/api/archive", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on archive failure, got %d", w.Code)
	}
}
