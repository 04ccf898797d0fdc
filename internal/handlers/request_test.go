package handlers

import (
	"testing"
	"time"
)

func TestValidateStructReportsJSONFieldName(t *testing.T) {
	type sample struct {
		Email string `json:"email" validate:"required"`
		Days  int    `json:"days_per_week" validate:"min=1,max=7"`
	}

	if msg := validateStruct(&sample{Email: "a@b.c", Days: 3}); msg != "" {
		t.Fatalf("expected valid struct, got %q", msg)
	}
	if msg := validateStruct(&sample{Days: 3}); msg != "email is invalid" {
		t.Fatalf("unexpected message %q", msg)
	}
	if msg := validateStruct(&sample{Email: "a@b.c", Days: 9}); msg != "days_per_week is invalid" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestParseFlexibleTime(t *testing.T) {
	parsed, err := parseFlexibleTime("2030-01-02")
	if err != nil || !parsed.Equal(time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date parse %v %v", parsed, err)
	}
	if _, err := parseFlexibleTime("2030-01-02T10:00:00+02:00"); err != nil {
		t.Fatalf("expected RFC3339 accepted: %v", err)
	}
	if _, err := parseFlexibleTime("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}
