package config

import (
	"os"
	"strconv"
	"time"
)

// Settings holds process level configuration resolved from the environment.
type Settings struct {
	DataDir         string        // directory for persisted action records
	LogDir          string        // directory for intent, clarification and validation logs
	DefaultLanguage string        // ISO 639-1 code assumed when detection yields nothing
	AppointmentHour int           // hour of day assigned to scheduled appointments
	SessionTTL      time.Duration // lifetime of persisted sessions, zero keeps them forever
	RedisAddr       string        // redis address for the session store, empty selects in-memory
	MongoURI        string        // mongodb connection string for the knowledge store
	PostgresDSN     string        // postgres connection string for the action store
}

// Load resolves Settings from CONVODESK_* environment variables,
// falling back to defaults suitable for local development.
func Load() Settings {
	s := Settings{
		DataDir:         envOr("CONVODESK_DATA_DIR", "data"),
		LogDir:          envOr("CONVODESK_LOG_DIR", "logs"),
		DefaultLanguage: envOr("CONVODESK_DEFAULT_LANGUAGE", "en"),
		AppointmentHour: envIntOr("CONVODESK_APPOINTMENT_HOUR", 10),
		RedisAddr:       os.Getenv("CONVODESK_REDIS_ADDR"),
		MongoURI:        os.Getenv("CONVODESK_MONGO_URI"),
		PostgresDSN:     os.Getenv("CONVODESK_POSTGRES_DSN"),
	}
	if d, err := time.ParseDuration(os.Getenv("CONVODESK_SESSION_TTL")); err == nil && d > 0 {
		s.SessionTTL = d
	}
	return s
}

// Validate reports settings that cannot work.
func (s Settings) Validate() error {
	v := NewValidator()
	v.RequireNonEmpty("dataDir", s.DataDir)
	v.RequireNonEmpty("logDir", s.LogDir)
	v.ValidateMinLength("defaultLanguage", s.DefaultLanguage, 2)
	v.ValidateRange("appointmentHour", s.AppointmentHour, 0, 23)
	return v.Error()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
