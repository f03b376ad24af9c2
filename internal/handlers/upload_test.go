package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"ppestation/internal/compliance"
	"ppestation/internal/detection"
	"ppestation/internal/history"
	"ppestation/internal/session"
)

type fakeDetector struct {
	result *detection.Result
	err    error
}

func (d *fakeDetector) Detect(ctx context.Context, frame []byte) (*detection.Result, error) {
	return d.result, d.err
}

func (d *fakeDetector) Upload(ctx context.Context, filename string, data []byte) (*detection.Result, error) {
	return d.result, d.err
}

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func newUploadController(t *testing.T, detector session.Detector) *session.UploadController {
	t.Helper()
	return session.NewUploadController(detector, history.NewStore(), session.NewStatus(), session.PublisherFunc(func(session.Update) {}), newTestLogger(t))
}

func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	w.Close()

	return &body, w.FormDataContentType()
}

func TestSelectUploadHandler(t *testing.T) {
	upload := newUploadController(t, &fakeDetector{})
	handler := SelectUploadHandler(upload, newTestLogger(t))

	body, contentType := multipartBody(t, "worker.jpg", jpegHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/upload/select", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		State session.UploadState `json:"state"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.State != session.UploadSelected {
		t.Errorf("Expected state selected, got %s", response.State)
	}
}

func TestSelectUploadHandler_RejectsNonImage(t *testing.T) {
	upload := newUploadController(t, &fakeDetector{})
	handler := SelectUploadHandler(upload, newTestLogger(t))

	body, contentType := multipartBody(t, "notes.txt", []byte("plain text, not pixels"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/select", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	if upload.State() != session.UploadEmpty {
		t.Errorf("Expected state untouched, got %s", upload.State())
	}
}

func TestSelectUploadHandler_RequiresFileField(t *testing.T) {
	upload := newUploadController(t, &fakeDetector{})
	handler := SelectUploadHandler(upload, newTestLogger(t))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	w.WriteField("other", "value")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload/select", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestDetectUploadHandler(t *testing.T) {
	detector := &fakeDetector{result: &detection.Result{Labels: []string{"person", "helmet", "vest"}}}
	upload := newUploadController(t, detector)
	if err := upload.Select("worker.jpg", jpegHeader); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	handler := DetectUploadHandler(upload, newTestLogger(t))
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/upload/detect", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var update session.Update
	if err := json.NewDecoder(rec.Body).Decode(&update); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if update.Verdict != compliance.VerdictPass {
		t.Errorf("Expected pass verdict, got %s", update.Verdict)
	}
}

func TestDetectUploadHandler_ServiceFailure(t *testing.T) {
	detector := &fakeDetector{err: errors.New("service unreachable")}
	upload := newUploadController(t, detector)
	if err := upload.Select("worker.jpg", jpegHeader); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	handler := DetectUploadHandler(upload, newTestLogger(t))
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/upload/detect", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", rec.Code)
	}
	if upload.State() != session.UploadSelected {
		t.Errorf("Expected file to stay selected, got %s", upload.State())
	}
}

func TestClearUploadHandler(t *testing.T) {
	upload := newUploadController(t, &fakeDetector{})
	if err := upload.Select("worker.jpg", jpegHeader); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	handler := ClearUploadHandler(upload)
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/upload/clear", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
	if upload.State() != session.UploadEmpty {
		t.Errorf("Expected state empty, got %s", upload.State())
	}
}

func TestUploadStateHandler(t *testing.T) {
	upload := newUploadController(t, &fakeDetector{})

	handler := UploadStateHandler(upload)
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/upload/state", nil))

	var response struct {
		State  session.UploadState `json:"state"`
		Result *session.Update     `json:"result"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.State != session.UploadEmpty {
		t.Errorf("Expected state empty, got %s", response.State)
	}
	if response.Result != nil {
		t.Errorf("Expected no result, got %+v", response.Result)
	}
}
