// Package config loads application configuration from environment
// variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the core runtime configuration. Each field corresponds
// to an environment variable; required variables abort startup when
// missing.
type Config struct {
	Env            string // application environment (dev/test/prod)
	Port           string // HTTP port to listen on
	DBUser         string
	DBPass         string // optional, empty allowed
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string // secret used to sign access tokens
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// Booking engine knobs. Schedule enforcement rejects reservations
	// outside a space's weekly availability windows and is on unless
	// explicitly disabled; when off, only the space status gate
	// applies. The auto-complete sweeper advances elapsed approved
	// reservations in the background.
	ScheduleEnforcement  bool
	AutoCompleteEnabled  bool
	AutoCompleteInterval time.Duration
	BookingTimezone      string // IANA zone used to evaluate windows
	StoreTimeout         time.Duration
}

// Load reads configuration from the environment. Required variables
// are enforced by must(); booking knobs fall back to sensible
// defaults so a minimal .env still boots.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		ScheduleEnforcement:  envBool("SCHEDULE_ENFORCEMENT", true),
		AutoCompleteEnabled:  envBool("AUTO_COMPLETE_ENABLED", true),
		AutoCompleteInterval: envDur("AUTO_COMPLETE_INTERVAL", time.Minute),
		BookingTimezone:      envStr("BOOKING_TIMEZONE", "UTC"),
		StoreTimeout:         envDur("STORE_TIMEOUT", 5*time.Second),
	}
}

// Location resolves BookingTimezone, falling back to UTC when the
// zone name is unknown.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BookingTimezone)
	if err != nil {
		log.Printf("config: unknown BOOKING_TIMEZONE %q, using UTC", c.BookingTimezone)
		return time.UTC
	}
	return loc
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
