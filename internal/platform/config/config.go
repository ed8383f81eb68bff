package config

import (
	"os"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean; defaults suit local development.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	UploadDir     string
}

// RequestTimeout bounds every request-level operation; the engine has no
// background jobs so nothing outlives this.
var RequestTimeout = 30 * time.Second

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("CAMPUSBOURSES_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	uploadDir := os.Getenv("CAMPUSBOURSES_UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSigningKey: jwtSigningKey,
		UploadDir:     uploadDir,
	}
}
