package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
)

type stubPhotoRepo struct {
	createResult *models.ProgressPhoto
	createErr    error
	getResult    *models.ProgressPhoto
	lastCreate   repository.CreatePhotoInput
	deletedID    int64
}

func (r *stubPhotoRepo) Create(_ context.Context, input repository.CreatePhotoInput) (*models.ProgressPhoto, error) {
	r.lastCreate = input
	return r.createResult, r.createErr
}

func (r *stubPhotoRepo) GetByID(_ context.Context, photoID int64) (*models.ProgressPhoto, error) {
	if r.getResult == nil || r.getResult.ID != photoID {
		return nil, pgx.ErrNoRows
	}
	return r.getResult, nil
}

func (r *stubPhotoRepo) ListByStudentID(_ context.Context, studentID int64) ([]models.ProgressPhoto, error) {
	return []models.ProgressPhoto{{ID: 1, StudentID: studentID}}, nil
}

func (r *stubPhotoRepo) Delete(_ context.Context, photoID int64) error {
	r.deletedID = photoID
	return nil
}

type stubStorage struct {
	uploadURL      string
	uploadErr      error
	signedURL      string
	deleteErr      error
	lastContent    string
	lastFilename   string
	lastFolder     string
	lastDeletedURL string
	lastExpiry     time.Duration
}

func (s *stubStorage) UploadFile(_ context.Context, file io.Reader, filename string, folder string) (string, error) {
	content, _ := io.ReadAll(file)
	s.lastContent = string(content)
	s.lastFilename = filename
	s.lastFolder = folder
	return s.uploadURL, s.uploadErr
}

func (s *stubStorage) DeleteFile(_ context.Context, fileURL string) error {
	s.lastDeletedURL = fileURL
	return s.deleteErr
}

func (s *stubStorage) GetSignedURL(_ context.Context, _ string, expiresIn time.Duration) (string, error) {
	s.lastExpiry = expiresIn
	return s.signedURL, nil
}

func newPhotoService(repo *stubPhotoRepo, storage StorageService) *PhotoService {
	service := NewPhotoService(repo, storage, &stubRoster{members: map[int64][]int64{7: {42}}})
	service.now = func() time.Time { return testTime }
	return service
}

func TestPhotoServiceUploadStoresPhoto(t *testing.T) {
	repo := &stubPhotoRepo{createResult: &models.ProgressPhoto{ID: 3, StudentID: 42}}
	storage := &stubStorage{uploadURL: "https://storage/photo.jpg"}
	service := newPhotoService(repo, storage)

	photo, err := service.Upload(context.Background(), 42, models.RoleStudent, UploadPhotoInput{
		StudentID: 42,
		Caption:   stringPtr("  week 4 "),
		File:      strings.NewReader("photo-bytes"),
		Filename:  "Front.JPG",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if photo.ID != 3 {
		t.Fatalf("unexpected photo %+v", photo)
	}
	if storage.lastFolder != "progress-photos" || !strings.HasSuffix(storage.lastFilename, ".jpg") {
		t.Fatalf("unexpected upload target %q/%q", storage.lastFolder, storage.lastFilename)
	}
	if storage.lastContent != "photo-bytes" {
		t.Fatalf("unexpected upload content %q", storage.lastContent)
	}
	if repo.lastCreate.Caption == nil || *repo.lastCreate.Caption != "week 4" {
		t.Fatalf("expected trimmed caption, got %v", repo.lastCreate.Caption)
	}
	if !repo.lastCreate.TakenAt.Equal(testTime) {
		t.Fatalf("expected taken_at defaulted to now, got %s", repo.lastCreate.TakenAt)
	}
}

func TestPhotoServiceUploadRejectsBadInput(t *testing.T) {
	service := newPhotoService(&stubPhotoRepo{}, &stubStorage{})
	future := testTime.Add(time.Hour)

	if _, err := service.Upload(context.Background(), 42, models.RoleStudent, UploadPhotoInput{
		StudentID: 42, File: strings.NewReader("x"), Filename: "notes.pdf",
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected extension rejected, got %v", err)
	}
	if _, err := service.Upload(context.Background(), 42, models.RoleStudent, UploadPhotoInput{
		StudentID: 42, File: strings.NewReader("x"), Filename: "a.png", TakenAt: &future,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected future taken_at rejected, got %v", err)
	}
	if _, err := service.Upload(context.Background(), 8, models.RoleGym, UploadPhotoInput{
		StudentID: 42, File: strings.NewReader("x"), Filename: "a.png",
	}); !errors.Is(err, ErrNotInRoster) {
		t.Fatalf("expected ErrNotInRoster, got %v", err)
	}
}

func TestPhotoServiceUploadCleansUpWhenInsertFails(t *testing.T) {
	createErr := errors.New("insert failed")
	storage := &stubStorage{uploadURL: "https://storage/photo.png", deleteErr: errors.New("delete failed")}
	service := newPhotoService(&stubPhotoRepo{createErr: createErr}, storage)

	_, err := service.Upload(context.Background(), 7, models.RoleTrainer, UploadPhotoInput{
		StudentID: 42, File: strings.NewReader("x"), Filename: "a.png",
	})
	if !errors.Is(err, createErr) {
		t.Fatalf("expected wrapped create error, got %v", err)
	}
	if !strings.Contains(err.Error(), "cleanup failed") {
		t.Fatalf("expected cleanup failure surfaced, got %v", err)
	}
	if storage.lastDeletedURL != "https://storage/photo.png" {
		t.Fatalf("expected cleanup attempted, got %q", storage.lastDeletedURL)
	}
}

func TestPhotoServiceRequiresStorage(t *testing.T) {
	service := NewPhotoService(&stubPhotoRepo{}, nil, &stubRoster{})
	if _, err := service.Upload(context.Background(), 42, models.RoleStudent, UploadPhotoInput{StudentID: 42}); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestPhotoServiceDownloadAndDelete(t *testing.T) {
	repo := &stubPhotoRepo{getResult: &models.ProgressPhoto{ID: 4, StudentID: 42, FileURL: "https://storage/a.png"}}
	storage := &stubStorage{signedURL: "https://signed/a.png", deleteErr: errors.New("gone wrong")}
	service := newPhotoService(repo, storage)

	signed, err := service.GetDownloadURL(context.Background(), 7, models.RoleTrainer, 4)
	if err != nil {
		t.Fatalf("GetDownloadURL: %v", err)
	}
	if signed != "https://signed/a.png" || storage.lastExpiry != time.Hour {
		t.Fatalf("unexpected signed url %q expiry %s", signed, storage.lastExpiry)
	}

	if _, err := service.GetDownloadURL(context.Background(), 8, models.RoleGym, 4); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := service.Delete(context.Background(), 42, models.RoleStudent, 4); err != nil {
		t.Fatalf("expected storage failure tolerated, got %v", err)
	}
	if repo.deletedID != 4 || storage.lastDeletedURL != "https://storage/a.png" {
		t.Fatalf("expected row and object deleted, got %d %q", repo.deletedID, storage.lastDeletedURL)
	}
}
