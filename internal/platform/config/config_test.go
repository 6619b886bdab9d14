package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.OvertimeMultiplier != 1.5 {
		t.Fatalf("expected overtime multiplier 1.5, got %v", cfg.OvertimeMultiplier)
	}
	if cfg.HolidayMultiplier != 2.0 {
		t.Fatalf("expected holiday multiplier 2.0, got %v", cfg.HolidayMultiplier)
	}
	if cfg.WeeklyOvertimeThreshold != 40 {
		t.Fatalf("expected weekly overtime threshold 40, got %v", cfg.WeeklyOvertimeThreshold)
	}
	if cfg.GeofenceRadiusMiles != 0.25 {
		t.Fatalf("expected geofence radius 0.25, got %v", cfg.GeofenceRadiusMiles)
	}
	if cfg.GraceMinutes != 10 {
		t.Fatalf("expected grace minutes 10, got %v", cfg.GraceMinutes)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WEEKLY_OVERTIME_THRESHOLD", "44")
	t.Setenv("CLOCK_IN_GRACE_MINUTES", "15")

	cfg := Load()
	if cfg.WeeklyOvertimeThreshold != 44 {
		t.Fatalf("expected weekly overtime threshold 44, got %v", cfg.WeeklyOvertimeThreshold)
	}
	if cfg.GraceMinutes != 15 {
		t.Fatalf("expected grace minutes 15, got %v", cfg.GraceMinutes)
	}
}

func TestValidate(t *testing.T) {
	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}

	cfg.DatabaseURL = "postgres://localhost/attendance"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.GeofenceRadiusMiles = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero geofence radius")
	}
}
