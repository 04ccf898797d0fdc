package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saeid-a/GymDashBack/internal/models"
)

const metricColumns = `id, student_id, recorded_at, weight_kg, body_fat_pct, muscle_mass_kg, waist_cm, chest_cm,
		hips_cm, notes, created_at`

type CreateMetricInput struct {
	StudentID    int64
	RecordedAt   time.Time
	WeightKG     float64
	BodyFatPct   *float64
	MuscleMassKG *float64
	WaistCM      *float64
	ChestCM      *float64
	HipsCM       *float64
	Notes        *string
}

type MetricRange struct {
	From *time.Time
	To   *time.Time
}

type BodyMetricRepository struct {
	db DBTX
}

func NewBodyMetricRepository(db DBTX) *BodyMetricRepository {
	return &BodyMetricRepository{db: db}
}

func (r *BodyMetricRepository) Create(ctx context.Context, input CreateMetricInput) (*models.BodyMetric, error) {
	query := `
		INSERT INTO body_metrics (student_id, recorded_at, weight_kg, body_fat_pct, muscle_mass_kg, waist_cm, chest_cm,
			hips_cm, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + metricColumns

	return scanMetric(r.db.QueryRow(
		ctx,
		query,
		input.StudentID,
		input.RecordedAt,
		input.WeightKG,
		input.BodyFatPct,
		input.MuscleMassKG,
		input.WaistCM,
		input.ChestCM,
		input.HipsCM,
		input.Notes,
	))
}

func (r *BodyMetricRepository) GetByID(ctx context.Context, metricID int64) (*models.BodyMetric, error) {
	return scanMetric(r.db.QueryRow(ctx, `SELECT `+metricColumns+` FROM body_metrics WHERE id = $1`, metricID))
}

func (r *BodyMetricRepository) GetLatest(ctx context.Context, studentID int64) (*models.BodyMetric, error) {
	query := `
		SELECT ` + metricColumns + `
		FROM body_metrics
		WHERE student_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`
	return scanMetric(r.db.QueryRow(ctx, query, studentID))
}

// List returns a student's measurements ordered oldest first.
func (r *BodyMetricRepository) List(
	ctx context.Context,
	studentID int64,
	window MetricRange,
) ([]models.BodyMetric, error) {
	args := []any{studentID}
	whereParts := []string{"student_id = $1"}
	if window.From != nil {
		args = append(args, window.From.UTC())
		whereParts = append(whereParts, fmt.Sprintf("recorded_at >= $%d", len(args)))
	}
	if window.To != nil {
		args = append(args, window.To.UTC())
		whereParts = append(whereParts, fmt.Sprintf("recorded_at <= $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM body_metrics
		WHERE %s
		ORDER BY recorded_at ASC, id ASC
	`, metricColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := make([]models.BodyMetric, 0)
	for rows.Next() {
		metric, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, *metric)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metrics, nil
}

func (r *BodyMetricRepository) Delete(ctx context.Context, metricID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM body_metrics WHERE id = $1`, metricID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanMetric(row rowScanner) (*models.BodyMetric, error) {
	var metric models.BodyMetric
	err := row.Scan(
		&metric.ID,
		&metric.StudentID,
		&metric.RecordedAt,
		&metric.WeightKG,
		&metric.BodyFatPct,
		&metric.MuscleMassKG,
		&metric.WaistCM,
		&metric.ChestCM,
		&metric.HipsCM,
		&metric.Notes,
		&metric.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &metric, nil
}
