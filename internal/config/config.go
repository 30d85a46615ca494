package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Defaults match what the original node
// server assumed (port 3000, Vite dev server as CORS origin) so an
// existing deployment's .env keeps working unchanged.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	CORSOrigin     string // allowed browser origin
}

// Load reads configuration from environment variables. Required
// variables are enforced by must() and missing values cause the process
// to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           getenv("PORT", "3000"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASSWORD"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         getenv("DB_PORT", "3306"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   intenv("ACCESS_TOKEN_TTL_MIN", 60), // original signed 1h tokens
		RefreshTTLDays: intenv("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     intenv("BCRYPT_COST", 10), // bcryptjs default in the old server
		CORSOrigin:     getenv("CORS_ORIGIN", "http://localhost:5173"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intenv(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
