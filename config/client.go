package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Client holds the settings of the interview CLI.
type Client struct {
	APIURL       string
	Timeout      time.Duration
	SessionStore string // memory|redis
	SessionTTL   time.Duration
	MetricsSeed  uint64
	MetricsMode  string // simulated|static
	Language     string
	CAFile       string // extra PEM roots for self-signed API servers
}

// LoadClient reads the client settings from the environment, loading .env
// first when present.
func LoadClient() (Client, error) {
	_ = godotenv.Load()

	c := Client{
		APIURL:       envOr("INTERVIEW_API_URL", "http://localhost:8000/api"),
		SessionStore: strings.ToLower(envOr("SESSION_STORE", "memory")),
		MetricsMode:  strings.ToLower(envOr("METRICS_MODE", "simulated")),
		Language:     envOr("INTERVIEW_LANGUAGE", "en-US"),
		CAFile:       strings.TrimSpace(os.Getenv("INTERVIEW_API_CA_FILE")),
	}

	secs, err := envInt("INTERVIEW_API_TIMEOUT_SEC", 15)
	if err != nil {
		return Client{}, err
	}
	c.Timeout = time.Duration(secs) * time.Second

	hours, err := envInt("SESSION_TTL_HOURS", 24)
	if err != nil {
		return Client{}, err
	}
	c.SessionTTL = time.Duration(hours) * time.Hour

	if v := strings.TrimSpace(os.Getenv("METRICS_SEED")); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Client{}, fmt.Errorf("METRICS_SEED: %w", err)
		}
		c.MetricsSeed = seed
	}

	switch c.SessionStore {
	case "memory", "redis":
	default:
		return Client{}, fmt.Errorf("SESSION_STORE must be memory or redis, got %q", c.SessionStore)
	}
	switch c.MetricsMode {
	case "simulated", "static":
	default:
		return Client{}, fmt.Errorf("METRICS_MODE must be simulated or static, got %q", c.MetricsMode)
	}
	return c, nil
}

// HTTPClient builds the client used to reach the Interview API. When CAFile
// is set its certificates are trusted in addition to the system roots.
func (c Client) HTTPClient() (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("INTERVIEW_API_CA_FILE: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("INTERVIEW_API_CA_FILE: no certificates in %s", c.CAFile)
		}
		tr.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}
	return &http.Client{Timeout: c.Timeout, Transport: tr}, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}
