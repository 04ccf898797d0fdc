package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/services"
)

type stubPhotoService struct {
	err         error
	lastInput   services.UploadPhotoInput
	lastContent string
	lastPhotoID int64
}

func (s *stubPhotoService) Upload(_ context.Context, _ int64, _ string, input services.UploadPhotoInput) (*models.ProgressPhoto, error) {
	s.lastInput = input
	if input.File != nil {
		content, _ := io.ReadAll(input.File)
		s.lastContent = string(content)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.ProgressPhoto{ID: 4, StudentID: input.StudentID, FileURL: "https://storage/progress-photos/x.png"}, nil
}

func (s *stubPhotoService) List(_ context.Context, _ int64, _ string, studentID int64) ([]models.ProgressPhoto, error) {
	return []models.ProgressPhoto{{ID: 4, StudentID: studentID}}, s.err
}

func (s *stubPhotoService) GetDownloadURL(_ context.Context, _ int64, _ string, photoID int64) (string, error) {
	s.lastPhotoID = photoID
	return "https://storage/signed/x.png?token=abc", s.err
}

func (s *stubPhotoService) Delete(_ context.Context, _ int64, _ string, photoID int64) error {
	s.lastPhotoID = photoID
	return s.err
}

func newPhotoApp(service *stubPhotoService) *fiber.App {
	handler := NewPhotoHandler(service)
	app := fiber.New()
	withActor(app, "42", "student")
	app.Post("/students/:studentId/photos", handler.Upload)
	app.Get("/students/:studentId/photos", handler.List)
	app.Get("/photos/:id/download", handler.Download)
	app.Delete("/photos/:id", handler.Delete)
	return app
}

func photoUploadRequest(t *testing.T, fields map[string]string, withFile bool) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("WriteField %s: %v", name, err)
		}
	}
	if withFile {
		part, err := writer.CreateFormFile("photo", "front.png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write([]byte("png-content")); err != nil {
			t.Fatalf("part.Write: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/students/42/photos", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadPhotoForwardsFile(t *testing.T) {
	service := &stubPhotoService{}
	app := newPhotoApp(service)

	resp, err := app.Test(photoUploadRequest(t, map[string]string{"caption": " Week 4 ", "taken_at": "2026-02-10"}, true))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	input := service.lastInput
	if input.StudentID != 42 || input.Filename != "front.png" || service.lastContent != "png-content" {
		t.Fatalf("unexpected upload %+v %q", input, service.lastContent)
	}
	if input.Caption == nil || *input.Caption != "Week 4" || input.TakenAt == nil {
		t.Fatalf("unexpected caption or taken_at %+v", input)
	}
}

func TestUploadPhotoRequiresFile(t *testing.T) {
	app := newPhotoApp(&stubPhotoService{})

	resp, err := app.Test(photoUploadRequest(t, map[string]string{"caption": "x"}, false))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp, err = app.Test(photoUploadRequest(t, map[string]string{"taken_at": "last week"}, true))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad taken_at, got %d", resp.StatusCode)
	}
}

func TestUploadPhotoStorageUnavailable(t *testing.T) {
	app := newPhotoApp(&stubPhotoService{err: services.ErrStorageUnavailable})

	resp, err := app.Test(photoUploadRequest(t, nil, true))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var payload map[string]string
	decodeBody(t, resp, &payload)
	if resp.StatusCode != http.StatusServiceUnavailable || payload["error"] != "Storage service is not configured" {
		t.Fatalf("unexpected response %d %v", resp.StatusCode, payload)
	}
}

func TestDownloadPhotoReturnsSignedURL(t *testing.T) {
	service := &stubPhotoService{}
	app := newPhotoApp(service)

	resp := getPath(t, app, "/photos/4/download")
	var payload struct {
		DownloadURL      string `json:"download_url"`
		ExpiresInSeconds int    `json:"expires_in_seconds"`
	}
	decodeBody(t, resp, &payload)
	if resp.StatusCode != http.StatusOK || service.lastPhotoID != 4 {
		t.Fatalf("unexpected response %d %d", resp.StatusCode, service.lastPhotoID)
	}
	if payload.DownloadURL == "" || payload.ExpiresInSeconds != 3600 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDeletePhotoForbidden(t *testing.T) {
	app := newPhotoApp(&stubPhotoService{err: services.ErrForbidden})

	resp := sendJSON(t, app, http.MethodDelete, "/photos/4", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
