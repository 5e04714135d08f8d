package config

import (
	"testing"
	"time"
)

// setRequiredEnv fills every variable Load treats as mandatory so the
// tests can exercise the optional booking knobs in isolation.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "campus_reservation")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "30")
	t.Setenv("BCRYPT_COST", "10")
}

func TestLoadBookingDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCHEDULE_ENFORCEMENT", "")
	t.Setenv("AUTO_COMPLETE_ENABLED", "")
	t.Setenv("AUTO_COMPLETE_INTERVAL", "")
	t.Setenv("BOOKING_TIMEZONE", "")
	t.Setenv("STORE_TIMEOUT", "")

	cfg := Load()
	if !cfg.ScheduleEnforcement {
		t.Fatal("ScheduleEnforcement must default to on")
	}
	if !cfg.AutoCompleteEnabled {
		t.Fatal("AutoCompleteEnabled must default to on")
	}
	if cfg.AutoCompleteInterval != time.Minute {
		t.Fatalf("AutoCompleteInterval = %v, want 1m", cfg.AutoCompleteInterval)
	}
	if cfg.BookingTimezone != "UTC" {
		t.Fatalf("BookingTimezone = %q, want UTC", cfg.BookingTimezone)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Fatalf("StoreTimeout = %v, want 5s", cfg.StoreTimeout)
	}
}

func TestLoadBookingOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCHEDULE_ENFORCEMENT", "false")
	t.Setenv("AUTO_COMPLETE_ENABLED", "off")
	t.Setenv("AUTO_COMPLETE_INTERVAL", "30s")
	t.Setenv("BOOKING_TIMEZONE", "Europe/Berlin")
	t.Setenv("STORE_TIMEOUT", "2s")

	cfg := Load()
	if cfg.ScheduleEnforcement {
		t.Fatal("ScheduleEnforcement not disabled by env")
	}
	if cfg.AutoCompleteEnabled {
		t.Fatal("AutoCompleteEnabled not disabled by env")
	}
	if cfg.AutoCompleteInterval != 30*time.Second {
		t.Fatalf("AutoCompleteInterval = %v, want 30s", cfg.AutoCompleteInterval)
	}
	if cfg.BookingTimezone != "Europe/Berlin" {
		t.Fatalf("BookingTimezone = %q", cfg.BookingTimezone)
	}
	if cfg.StoreTimeout != 2*time.Second {
		t.Fatalf("StoreTimeout = %v, want 2s", cfg.StoreTimeout)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOOKING_TIMEZONE", "Not/AZone")
	cfg := Load()
	if loc := cfg.Location(); loc != time.UTC {
		t.Fatalf("Location() = %v, want UTC", loc)
	}
}
