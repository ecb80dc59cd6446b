package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

func uploadFile(t *testing.T, env *testEnv, token, filename, contentType, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create multipart part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write multipart content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	env.ts.Config.Handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "alice")

	rec := uploadFile(t, env, token, "photo.png", "image/png", "fake-png-bytes")
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[UploadResponse](t, rec)
	if !strings.HasPrefix(resp.URL, "/uploads/") || !strings.HasSuffix(resp.URL, ".png") {
		t.Fatalf("unexpected upload url: %s", resp.URL)
	}
	if resp.OriginalFileName != "photo.png" || resp.FileType != "image" {
		t.Fatalf("unexpected upload response: %+v", resp)
	}

	// The stored file is served back over the static route.
	get := httptest.NewRequest(http.MethodGet, resp.URL, nil)
	getRec := httptest.NewRecorder()
	env.ts.Config.Handler.ServeHTTP(getRec, get)
	if getRec.Code != http.StatusOK {
		t.Fatalf("fetch uploaded file status = %d", getRec.Code)
	}
	if getRec.Body.String() != "fake-png-bytes" {
		t.Fatal("uploaded content does not round trip")
	}
}

func TestUploadVideoKind(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "alice")

	rec := uploadFile(t, env, token, "clip.mp4", "video/mp4", "fake-mp4-bytes")
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[UploadResponse](t, rec)
	if resp.FileType != "video" {
		t.Fatalf("file type = %s, want video", resp.FileType)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "alice")

	rec := uploadFile(t, env, token, "notes.txt", "text/plain", "hello")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported type status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUploadRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := uploadFile(t, env, "bad-token", "photo.png", "image/png", "bytes")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated upload status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
