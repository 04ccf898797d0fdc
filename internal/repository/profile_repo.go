package repository

import (
	"context"

	"github.com/saeid-a/GymDashBack/internal/models"
)

type UpdateProfileInput struct {
	FullName     *string
	Gender       *string
	HeightCM     *float64
	BirthYear    *int
	FitnessLevel *string
	Goals        *[]string
}

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) CreateEmpty(ctx context.Context, userID int64, fullName *string) error {
	query := `INSERT INTO profiles (user_id, full_name) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, query, userID, fullName)
	return err
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT user_id, full_name, gender, height_cm, birth_year, fitness_level, goals, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	var profile models.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.FullName,
		&profile.Gender,
		&profile.HeightCM,
		&profile.BirthYear,
		&profile.FitnessLevel,
		&profile.Goals,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) UpdatePartial(ctx context.Context, userID int64, input UpdateProfileInput) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET full_name = COALESCE($1, full_name),
			gender = COALESCE($2, gender),
			height_cm = COALESCE($3, height_cm),
			birth_year = COALESCE($4, birth_year),
			fitness_level = COALESCE($5, fitness_level),
			goals = COALESCE($6, goals),
			updated_at = NOW()
		WHERE user_id = $7
		RETURNING user_id, full_name, gender, height_cm, birth_year, fitness_level, goals, updated_at
	`
	var goals any
	if input.Goals != nil {
		goals = *input.Goals
	}

	var profile models.Profile
	err := r.db.QueryRow(ctx, query,
		input.FullName,
		input.Gender,
		input.HeightCM,
		input.BirthYear,
		input.FitnessLevel,
		goals,
		userID,
	).Scan(
		&profile.UserID,
		&profile.FullName,
		&profile.Gender,
		&profile.HeightCM,
		&profile.BirthYear,
		&profile.FitnessLevel,
		&profile.Goals,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
