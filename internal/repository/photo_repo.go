package repository

import (
	"context"
	"time"

	"github.com/saeid-a/GymDashBack/internal/models"
)

type CreatePhotoInput struct {
	StudentID int64
	Caption   *string
	TakenAt   time.Time
	FileURL   string
}

type ProgressPhotoRepository struct {
	db DBTX
}

func NewProgressPhotoRepository(db DBTX) *ProgressPhotoRepository {
	return &ProgressPhotoRepository{db: db}
}

func (r *ProgressPhotoRepository) Create(ctx context.Context, input CreatePhotoInput) (*models.ProgressPhoto, error) {
	query := `
		INSERT INTO progress_photos (student_id, caption, taken_at, file_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, student_id, caption, taken_at, file_url, created_at
	`

	var photo models.ProgressPhoto
	err := r.db.QueryRow(ctx, query, input.StudentID, input.Caption, input.TakenAt, input.FileURL).Scan(
		&photo.ID,
		&photo.StudentID,
		&photo.Caption,
		&photo.TakenAt,
		&photo.FileURL,
		&photo.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *ProgressPhotoRepository) GetByID(ctx context.Context, photoID int64) (*models.ProgressPhoto, error) {
	query := `
		SELECT id, student_id, caption, taken_at, file_url, created_at
		FROM progress_photos
		WHERE id = $1
	`

	var photo models.ProgressPhoto
	err := r.db.QueryRow(ctx, query, photoID).Scan(
		&photo.ID,
		&photo.StudentID,
		&photo.Caption,
		&photo.TakenAt,
		&photo.FileURL,
		&photo.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *ProgressPhotoRepository) ListByStudentID(ctx context.Context, studentID int64) ([]models.ProgressPhoto, error) {
	query := `
		SELECT id, student_id, caption, taken_at, file_url, created_at
		FROM progress_photos
		WHERE student_id = $1
		ORDER BY taken_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := make([]models.ProgressPhoto, 0)
	for rows.Next() {
		var photo models.ProgressPhoto
		if err := rows.Scan(
			&photo.ID,
			&photo.StudentID,
			&photo.Caption,
			&photo.TakenAt,
			&photo.FileURL,
			&photo.CreatedAt,
		); err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return photos, nil
}

func (r *ProgressPhotoRepository) Delete(ctx context.Context, photoID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM progress_photos WHERE id = $1`, photoID)
	return err
}
