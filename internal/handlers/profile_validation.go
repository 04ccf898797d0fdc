package handlers

import (
	"strings"
	"time"
)

const minBirthYear = 1900

var allowedGenders = map[string]struct{}{
	"male":              {},
	"female":            {},
	"other":             {},
	"prefer_not_to_say": {},
}

var allowedFitnessLevels = map[string]struct{}{
	"beginner":     {},
	"intermediate": {},
	"advanced":     {},
}

func validateProfileUpdateRequest(req updateProfileRequest, now time.Time) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.Gender != nil {
		if err := validateGender(*req.Gender); err != "" {
			return err
		}
	}
	if req.HeightCM != nil && *req.HeightCM <= 0 {
		return "height_cm must be greater than 0"
	}
	if req.BirthYear != nil && (*req.BirthYear < minBirthYear || *req.BirthYear > now.Year()) {
		return "birth_year must be between 1900 and the current year"
	}
	if req.FitnessLevel != nil {
		if err := validateFitnessLevel(*req.FitnessLevel); err != "" {
			return err
		}
	}
	if req.Goals != nil {
		for _, goal := range *req.Goals {
			if strings.TrimSpace(goal) == "" {
				return "goals must not contain empty values"
			}
		}
	}
	return ""
}

func validateGender(gender string) string {
	if _, ok := allowedGenders[strings.TrimSpace(gender)]; !ok {
		return "gender must be one of: male, female, other, prefer_not_to_say"
	}
	return ""
}

func validateFitnessLevel(level string) string {
	if _, ok := allowedFitnessLevels[strings.TrimSpace(level)]; !ok {
		return "fitness_level must be one of: beginner, intermediate, advanced"
	}
	return ""
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

func trimAll(values *[]string) *[]string {
	if values == nil {
		return nil
	}
	trimmed := make([]string, 0, len(*values))
	for _, value := range *values {
		trimmed = append(trimmed, strings.TrimSpace(value))
	}
	return &trimmed
}
