package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
)

const (
	maxWeightKG      = 500
	maxMeasurementCM = 300
	clockSkew        = time.Minute
)

type bodyMetricStore interface {
	Create(ctx context.Context, input repository.CreateMetricInput) (*models.BodyMetric, error)
	GetByID(ctx context.Context, metricID int64) (*models.BodyMetric, error)
	GetLatest(ctx context.Context, studentID int64) (*models.BodyMetric, error)
	List(ctx context.Context, studentID int64, window repository.MetricRange) ([]models.BodyMetric, error)
	Delete(ctx context.Context, metricID int64) (bool, error)
}

type RecordMetricInput struct {
	RecordedAt   *time.Time
	WeightKG     float64
	BodyFatPct   *float64
	MuscleMassKG *float64
	WaistCM      *float64
	ChestCM      *float64
	HipsCM       *float64
	Notes        *string
}

type MetricService struct {
	metricRepo bodyMetricStore
	access     studentAccess
	now        func() time.Time
}

func NewMetricService(metricRepo bodyMetricStore, roster rosterChecker) *MetricService {
	return &MetricService{
		metricRepo: metricRepo,
		access:     studentAccess{roster: roster},
		now:        time.Now,
	}
}

func (s *MetricService) Record(
	ctx context.Context,
	actorID int64,
	role string,
	studentID int64,
	input RecordMetricInput,
) (*models.BodyMetric, error) {
	if err := s.access.check(ctx, actorID, role, studentID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	recordedAt := now
	if input.RecordedAt != nil {
		if input.RecordedAt.After(now.Add(clockSkew)) {
			return nil, fmt.Errorf("%w: recorded_at is in the future", ErrInvalidInput)
		}
		recordedAt = input.RecordedAt.UTC()
	}

	if input.WeightKG <= 0 || input.WeightKG >= maxWeightKG {
		return nil, fmt.Errorf("%w: weight_kg out of range", ErrInvalidInput)
	}
	if !percentInRange(input.BodyFatPct) {
		return nil, fmt.Errorf("%w: body_fat_pct out of range", ErrInvalidInput)
	}
	if input.MuscleMassKG != nil && (*input.MuscleMassKG <= 0 || *input.MuscleMassKG >= input.WeightKG) {
		return nil, fmt.Errorf("%w: muscle_mass_kg out of range", ErrInvalidInput)
	}
	for name, value := range map[string]*float64{
		models.MetricWaistCM: input.WaistCM,
		models.MetricChestCM: input.ChestCM,
		models.MetricHipsCM:  input.HipsCM,
	} {
		if value != nil && (*value <= 0 || *value > maxMeasurementCM) {
			return nil, fmt.Errorf("%w: %s out of range", ErrInvalidInput, name)
		}
	}

	return s.metricRepo.Create(ctx, repository.CreateMetricInput{
		StudentID:    studentID,
		RecordedAt:   recordedAt,
		WeightKG:     input.WeightKG,
		BodyFatPct:   input.BodyFatPct,
		MuscleMassKG: input.MuscleMassKG,
		WaistCM:      input.WaistCM,
		ChestCM:      input.ChestCM,
		HipsCM:       input.HipsCM,
		Notes:        trimOptional(input.Notes),
	})
}

func (s *MetricService) List(
	ctx context.Context,
	actorID int64,
	role string,
	studentID int64,
	window repository.MetricRange,
) ([]models.BodyMetric, error) {
	if err := s.access.check(ctx, actorID, role, studentID); err != nil {
		return nil, err
	}
	if window.From != nil && window.To != nil && window.From.After(*window.To) {
		return nil, fmt.Errorf("%w: from is after to", ErrInvalidInput)
	}
	return s.metricRepo.List(ctx, studentID, window)
}

// Series returns the chart points of one measurement; entries without it are skipped.
func (s *MetricService) Series(
	ctx context.Context,
	actorID int64,
	role string,
	studentID int64,
	metric string,
	window repository.MetricRange,
) (*models.MetricSeries, error) {
	if !models.IsKnownMetric(metric) {
		return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, metric)
	}
	entries, err := s.List(ctx, actorID, role, studentID, window)
	if err != nil {
		return nil, err
	}
	return BuildSeries(metric, entries), nil
}

func (s *MetricService) Summary(
	ctx context.Context,
	actorID int64,
	role string,
	studentID int64,
	window repository.MetricRange,
) (*models.MetricSummary, error) {
	entries, err := s.List(ctx, actorID, role, studentID, window)
	if err != nil {
		return nil, err
	}
	summary := BuildSummary(entries)
	summary.StudentID = studentID
	return summary, nil
}

func (s *MetricService) Latest(ctx context.Context, actorID int64, role string, studentID int64) (*models.BodyMetric, error) {
	if err := s.access.check(ctx, actorID, role, studentID); err != nil {
		return nil, err
	}
	return s.metricRepo.GetLatest(ctx, studentID)
}

func (s *MetricService) Delete(ctx context.Context, actorID int64, role string, metricID int64) error {
	metric, err := s.metricRepo.GetByID(ctx, metricID)
	if err != nil {
		return err
	}
	if err := s.access.check(ctx, actorID, role, metric.StudentID); err != nil {
		if errors.Is(err, ErrNotInRoster) {
			return ErrForbidden
		}
		return err
	}
	if _, err := s.metricRepo.Delete(ctx, metricID); err != nil {
		return err
	}
	return nil
}

// BuildSeries expects entries ordered oldest first.
func BuildSeries(metric string, entries []models.BodyMetric) *models.MetricSeries {
	series := &models.MetricSeries{Metric: metric, Points: make([]models.MetricPoint, 0, len(entries))}
	for i := range entries {
		value, ok := entries[i].Value(metric)
		if !ok {
			continue
		}
		series.Points = append(series.Points, models.MetricPoint{RecordedAt: entries[i].RecordedAt, Value: value})
	}
	return series
}

// BuildSummary reports first, latest and delta for every known metric.
func BuildSummary(entries []models.BodyMetric) *models.MetricSummary {
	summary := &models.MetricSummary{Entries: len(entries), Changes: make([]models.MetricChange, 0, len(models.MetricNames))}
	for _, name := range models.MetricNames {
		change := models.MetricChange{Metric: name}
		points := BuildSeries(name, entries).Points
		if len(points) > 0 {
			first := points[0]
			latest := points[len(points)-1]
			delta := roundTo(latest.Value-first.Value, 2)
			change.First = &first
			change.Latest = &latest
			change.Delta = &delta
		}
		summary.Changes = append(summary.Changes, change)
	}
	return summary
}

func percentInRange(value *float64) bool {
	return value == nil || (*value >= 0 && *value <= 100)
}
