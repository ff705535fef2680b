package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cnvrt/gemini-edit-image/internal/infra"
	"github.com/cnvrt/gemini-edit-image/internal/providers/genai"
	"github.com/cnvrt/gemini-edit-image/internal/storage"
)

type uploadCall struct {
	Path        string
	MIMEType    string
	DisplayName string
	PathExisted bool
}

type stubAI struct {
	uploads    []uploadCall
	failUpload int // 1-based index of the upload call that should fail; 0 = never
	uploadErr  error

	editPrompt string
	editRefs   []genai.FileRef
	editCalls  int
	editResp   *genai.GenerateContentResponse
	editErr    error

	parseCommand string
	parseLocale  string
	parseResult  json.RawMessage
	parseErr     error
}

func (s *stubAI) UploadFile(ctx context.Context, path, mimeType, displayName string) (genai.FileRef, error) {
	_, statErr := os.Stat(path)
	s.uploads = append(s.uploads, uploadCall{
		Path:        path,
		MIMEType:    mimeType,
		DisplayName: displayName,
		PathExisted: statErr == nil,
	})
	if s.failUpload != 0 && len(s.uploads) == s.failUpload {
		if s.uploadErr != nil {
			return genai.FileRef{}, s.uploadErr
		}
		return genai.FileRef{}, errors.New("upload rejected")
	}
	return genai.FileRef{URI: "files/" + displayName, MIMEType: mimeType}, nil
}

func (s *stubAI) EditImage(ctx context.Context, prompt string, refs []genai.FileRef) (*genai.GenerateContentResponse, error) {
	s.editCalls++
	s.editPrompt = prompt
	s.editRefs = append([]genai.FileRef(nil), refs...)
	if s.editErr != nil {
		return nil, s.editErr
	}
	if s.editResp != nil {
		return s.editResp, nil
	}
	return imageResponse("aW1hZ2UtYnl0ZXM=", "image/png"), nil
}

func (s *stubAI) ParseCommand(ctx context.Context, command, locale string) (json.RawMessage, error) {
	s.parseCommand = command
	s.parseLocale = locale
	if s.parseErr != nil {
		return nil, s.parseErr
	}
	return s.parseResult, nil
}

func imageResponse(data, mimeType string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []genai.Candidate{{
		Content: genai.Content{Parts: []genai.Part{
			{InlineData: &genai.InlineData{MIMEType: mimeType, Data: data}},
		}},
	}}}
}

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, genai.Part{Text: t})
	}
	return &genai.GenerateContentResponse{Candidates: []genai.Candidate{{
		Content: genai.Content{Parts: parts},
	}}}
}

func newTestApp(t *testing.T, ai AIClient) *App {
	t.Helper()
	logger := zerolog.New(io.Discard)
	temp, err := storage.NewTempStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewApp(nil, nil, temp, ai, &infra.Config{}, logger)
}

type filePart struct {
	field    string
	filename string
	content  string
	mimeType string
}

func multipartRequest(t *testing.T, target string, prompt *string, files ...filePart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		if f.mimeType != "" {
			header.Set("Content-Type", f.mimeType)
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := io.WriteString(part, f.content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if prompt != nil {
		if err := writer.WriteField("prompt", *prompt); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func tempEntries(t *testing.T, app *App) int {
	t.Helper()
	entries, err := os.ReadDir(app.Temp.Dir())
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	return len(entries)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func strPtr(s string) *string { return &s }

func TestEditImageSuccess(t *testing.T) {
	ai := &stubAI{}
	app := newTestApp(t, ai)

	req := multipartRequest(t, "/api/edit-image", strPtr("make it blue"),
		filePart{field: "image", filename: "cat.png", content: "png-bytes", mimeType: "image/png"})
	rec := httptest.NewRecorder()
	app.EditImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["imageData"] != "aW1hZ2UtYnl0ZXM=" || body["mimeType"] != "image/png" {
		t.Fatalf("unexpected body: %#v", body)
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("success response must not carry an error field: %#v", body)
	}
	if len(ai.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(ai.uploads))
	}
	if !ai.uploads[0].PathExisted {
		t.Fatalf("temp file should exist at upload time")
	}
	if ai.editPrompt != "make it blue" {
		t.Fatalf("prompt = %q", ai.editPrompt)
	}
	if n := tempEntries(t, app); n != 0 {
		t.Fatalf("temp files leaked: %d entries", n)
	}
}

func TestEditImageMissingPromptHasNoSideEffects(t *testing.T) {
	ai := &stubAI{}
	app := newTestApp(t, ai)

	req := multipartRequest(t, "/api/edit-image", nil,
		filePart{field: "image", filename: "cat.png", content: "png-bytes", mimeType: "image/png"})
	rec := httptest.NewRecorder()
	app.EditImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(ai.uploads) != 0 || ai.editCalls != 0 {
		t.Fatalf("remote service must not be touched on validation failure")
	}
	if n := tempEntries(t, app); n != 0 {
		t.Fatalf("no temp file should be written, found %d", n)
	}
}

func TestEditImageMissingFile(t *testing.T) {
	app := newTestApp(t, &stubAI{})
	req := multipartRequest(t, "/api/edit-image", strPtr("make it blue"))
	rec := httptest.NewRecorder()
	app.EditImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "No image file provided" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestEditImageWithoutClient(t *testing.T) {
	app := newTestApp(t, nil)
	req := multipartRequest(t, "/api/edit-image", strPtr("make it blue"),
		filePart{field: "image", filename: "cat.png", content: "x", mimeType: "image/png"})
	rec := httptest.NewRecorder()
	app.EditImage(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != msgClientNotInitialized {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestEditImageModelReturnsTextOnly(t *testing.T) {
	ai := &stubAI{editResp: textResponse("I can't do that")}
	app := newTestApp(t, ai)

	req := multipartRequest(t, "/api/edit-image", strPtr("make it blue"),
		filePart{field: "image", filename: "cat.png", content: "x", mimeType: "image/png"})
	rec := httptest.NewRecorder()
	app.EditImage(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["details"] != "I can't do that" {
		t.Fatalf("details = %q, want the model's text", body["details"])
	}
	if _, ok := body["imageData"]; ok {
		t.Fatalf("error response must not carry image data: %#v", body)
	}
	if n := tempEntries(t, app); n != 0 {
		t.Fatalf("temp files leaked: %d entries", n)
	}
}

func TestEditImageBlockedPrompt(t *testing.T) {
	ai := &stubAI{editResp: &genai.GenerateContentResponse{
		PromptFeedback: &genai.PromptFeedback{BlockReason: "SAFETY"},
	}}
	app := newTestApp(t, ai)

	req := multipartRequest(t, "/api/edit-image", strPtr("do something bad"),
		filePart{field: "image", filename: "cat.png", content: "x", mimeType: "image/png"})
	rec := httptest.NewRecorder()
	app.EditImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["details"] != "SAFETY" {
		t.Fatalf("unexpected body: %#v", body)
	}
	if n := tempEntries(t, app); n != 0 {
		t.Fatalf("temp files leaked: %d entries", n)
	}
}

func TestEditImageGenerationFailureCleansUp(t *testing.T) {
	ai := &stubAI{editErr: errors.New("gemini is down")}
	app := newTestApp(t, ai)

	req := multipartRequest(t, "/api/edit-image", strPtr("make it blue"),
		filePart{field: "image", filename: "cat.png", content: "x", mimeType: "image/png"})
	rec := httptest.NewRecorder()
	app.EditImage(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body := decodeBody(t, rec); body["details"] != "gemini is down" {
		t.Fatalf("unexpected body: %#v", body)
	}
	if n := tempEntries(t, app); n != 0 {
		t.Fatalf("temp files leaked: %d entries", n)
	}
}

func TestEditTwoImagesPreservesUploadOrder(t *testing.T) {
	ai := &stubAI{}
	app := newTestApp(t, ai)

	req := multipartRequest(t, "/api/edit-two-images", strPtr("put the hat on the cat"),
		filePart{field: "image1", filename: "cat.png", content: "cat", mimeType: "image/png"},
		filePart{field: "image2", filename: "hat.png", content: "hat", mimeType: "image/png"})
	rec := httptest.NewRecorder()
	app.EditTwoImages(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["imageData"] == "" {
		t.Fatalf("missing image data: %#v", body)
	}
	if mimeType := body["mimeType"]; len(mimeType) < 6 || mimeType[:6] != "image/" {
		t.Fatalf("mime = %q, want image/* prefix", mimeType)
	}

	if len(ai.uploads) != 2 {
		t.Fatalf("uploads = %d, want 2", len(ai.uploads))
	}
	if len(ai.editRefs) != 2 {
		t.Fatalf("refs = %d, want 2", len(ai.editRefs))
	}
	// Reference order must follow upload order: image1 before image2.
	if ai.editRefs[0].URI != "files/"+ai.uploads[0].DisplayName {
		t.Fatalf("first ref = %q, want ref of first upload %q", ai.editRefs[0].URI, ai.uploads[0].DisplayName)
	}
	if ai.editRefs[1].URI != "files/"+ai.uploads[1].DisplayName {
		t.Fatalf("second ref = %q, want ref of second upload %q", ai.editRefs[1].URI, ai.uploads[1].DisplayName)
	}
	if n := tempEntries(t, app); n != 0 {
		t.Fatalf("temp files leaked: %d entries", n)
	}
}

func TestEditTwoImagesRequiresBothFiles(t *testing.T) {
	ai := &stubAI{}
	app := newTestApp(t, ai)

	req := multipartRequest(t, "/api/edit-two-images", strPtr("combine"),
		filePart{field: "image1", filename: "cat.png", content: "cat", mimeType: "image/png"})
	rec := httptest.NewRecorder()
	app.EditTwoImages(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Two image files are required" {
		t.Fatalf("unexpected body: %#v", body)
	}
	if len(ai.uploads) != 0 {
		t.Fatalf("nothing should be uploaded")
	}
	if n := tempEntries(t, app); n != 0 {
		t.Fatalf("no temp file should be written, found %d", n)
	}
}

func TestEditTwoImagesCleansUpWhenSecondUploadFails(t *testing.T) {
	ai := &stubAI{failUpload: 2, uploadErr: errors.New("mime rejected")}
	app := newTestApp(t, ai)

	req := multipartRequest(t, "/api/edit-two-images", strPtr("combine"),
		filePart{field: "image1", filename: "cat.png", content: "cat", mimeType: "image/png"},
		filePart{field: "image2", filename: "hat.png", content: "hat", mimeType: "image/png"})
	rec := httptest.NewRecorder()
	app.EditTwoImages(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body := decodeBody(t, rec); body["details"] != "mime rejected" {
		t.Fatalf("unexpected body: %#v", body)
	}
	if ai.editCalls != 0 {
		t.Fatalf("generation must not run after a failed upload")
	}
	// Both temp files must be gone, including the one whose upload succeeded.
	if n := tempEntries(t, app); n != 0 {
		t.Fatalf("temp files leaked: %d entries", n)
	}
}

func TestUploadMIMETypeFallsBackToExtension(t *testing.T) {
	header := &multipart.FileHeader{Filename: "photo.jpg", Header: textproto.MIMEHeader{}}
	if got := uploadMIMEType(header); got != "image/jpeg" {
		t.Fatalf("mime = %q, want image/jpeg", got)
	}
	header = &multipart.FileHeader{Filename: "blob", Header: textproto.MIMEHeader{}}
	if got := uploadMIMEType(header); got != "image/png" {
		t.Fatalf("mime = %q, want generic image/png", got)
	}
}
