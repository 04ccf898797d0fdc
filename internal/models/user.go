package models

import "time"

const (
	RoleStudent = "student"
	RoleTrainer = "trainer"
	RoleGym     = "gym"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsStaffRole reports whether role may author plans and keep a roster.
func IsStaffRole(role string) bool {
	return role == RoleTrainer || role == RoleGym
}

func IsKnownRole(role string) bool {
	return role == RoleStudent || IsStaffRole(role)
}

type Profile struct {
	UserID       int64     `json:"user_id"`
	FullName     *string   `json:"full_name"`
	Gender       *string   `json:"gender"`
	HeightCM     *float64  `json:"height_cm"`
	BirthYear    *int      `json:"birth_year"`
	FitnessLevel *string   `json:"fitness_level"`
	Goals        *[]string `json:"goals"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName falls back to the email when no name is set.
func (p *Profile) DisplayName(fallback string) string {
	if p != nil && p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return fallback
}
