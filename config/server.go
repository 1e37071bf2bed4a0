package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Server holds the settings of the Interview API process that are not
// connection strings (those are read by the Init* functions).
type Server struct {
	Port        string
	MongoDB     string
	JWTSecret   string
	JWTIssuer   string
	TokenTTL    time.Duration
	GCSBucket   string
	GCPProject  string
	GCPLocation string
	LLMModel    string
	Workers     int
	Language    string
	AdminEmail  string
	AdminPass   string
	Origins     []string
}

func LoadServer() (Server, error) {
	s := Server{
		Port:        envOr("PORT", "8000"),
		MongoDB:     envOr("MONGO_DB", "hireflow"),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   envOr("JWT_ISSUER", "hireflow-interview-api"),
		GCSBucket:   strings.TrimSpace(os.Getenv("GCS_BUCKET")),
		GCPProject:  strings.TrimSpace(os.Getenv("GCP_PROJECT")),
		GCPLocation: envOr("GCP_LOCATION", "us-central1"),
		LLMModel:    envOr("LLM_MODEL", "gemini-1.5-flash"),
		Language:    envOr("STT_LANGUAGE", "en-US"),
		AdminEmail:  strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPass:   os.Getenv("ADMIN_PASSWORD"),
		Origins:     splitList(os.Getenv("ALLOWED_ORIGINS")),
	}
	if s.JWTSecret == "" {
		return Server{}, errors.New("JWT_SECRET environment variable is not set")
	}

	hours, err := envInt("TOKEN_TTL_HOURS", 24)
	if err != nil {
		return Server{}, err
	}
	s.TokenTTL = time.Duration(hours) * time.Hour

	if s.Workers, err = envInt("WORKERS", 3); err != nil {
		return Server{}, err
	}
	return s, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
