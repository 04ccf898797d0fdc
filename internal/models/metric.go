package models

import "time"

const (
	MetricWeightKG     = "weight_kg"
	MetricBodyFatPct   = "body_fat_pct"
	MetricMuscleMassKG = "muscle_mass_kg"
	MetricWaistCM      = "waist_cm"
	MetricChestCM      = "chest_cm"
	MetricHipsCM       = "hips_cm"
)

var MetricNames = []string{
	MetricWeightKG,
	MetricBodyFatPct,
	MetricMuscleMassKG,
	MetricWaistCM,
	MetricChestCM,
	MetricHipsCM,
}

type BodyMetric struct {
	ID           int64     `json:"id"`
	StudentID    int64     `json:"student_id"`
	RecordedAt   time.Time `json:"recorded_at"`
	WeightKG     float64   `json:"weight_kg"`
	BodyFatPct   *float64  `json:"body_fat_pct"`
	MuscleMassKG *float64  `json:"muscle_mass_kg"`
	WaistCM      *float64  `json:"waist_cm"`
	ChestCM      *float64  `json:"chest_cm"`
	HipsCM       *float64  `json:"hips_cm"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}

// Value returns the named measurement, false when it is unknown or unset.
func (m *BodyMetric) Value(name string) (float64, bool) {
	var value *float64
	switch name {
	case MetricWeightKG:
		return m.WeightKG, true
	case MetricBodyFatPct:
		value = m.BodyFatPct
	case MetricMuscleMassKG:
		value = m.MuscleMassKG
	case MetricWaistCM:
		value = m.WaistCM
	case MetricChestCM:
		value = m.ChestCM
	case MetricHipsCM:
		value = m.HipsCM
	}
	if value == nil {
		return 0, false
	}
	return *value, true
}

func IsKnownMetric(name string) bool {
	for _, known := range MetricNames {
		if known == name {
			return true
		}
	}
	return false
}

type MetricPoint struct {
	RecordedAt time.Time `json:"recorded_at"`
	Value      float64   `json:"value"`
}

type MetricSeries struct {
	Metric string        `json:"metric"`
	Points []MetricPoint `json:"points"`
}

type MetricChange struct {
	Metric string       `json:"metric"`
	First  *MetricPoint `json:"first"`
	Latest *MetricPoint `json:"latest"`
	Delta  *float64     `json:"delta"`
}

type MetricSummary struct {
	StudentID int64          `json:"student_id"`
	Entries   int            `json:"entries"`
	Changes   []MetricChange `json:"changes"`
}

type ProgressPhoto struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	Caption   *string   `json:"caption,omitempty"`
	TakenAt   time.Time `json:"taken_at"`
	FileURL   string    `json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
}
