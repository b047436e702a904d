package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	SQLitePath string
	WebPath    string

	// Object storage where source recordings and uploads live.
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool
	S3Region    string

	PresignTTLSec int

	// Ingest
	IngestChunkSize int // e.g. 200, objects listed per page

	// Security
	AdminToken    string // Authentication token for admin endpoints
	WebhookSecret string // Secret for storage webhook signature validation

	// Auth / sessions
	AuthEnabled            bool
	AuthCookieName         string
	AuthSessionTTLMinutes  int
	AuthRegistrationMode   string // open | secret | closed
	AuthRegistrationSecret string

	// Debug / trace
	IngestSseDebug bool // LOG: /admin/ingest/* SSE
}

func Load() Config {
	dbPath := env("SQLITE_PATH", "/var/lib/teachings-archive/archive.db")
	webPath := env("WEB_PATH", "/app/web")

	_ = os.MkdirAll(filepath.Dir(dbPath), 0755)
	_ = os.MkdirAll(webPath, 0755)

	s3Bucket := env("S3_BUCKET", "")
	adminToken := env("ADMIN_TOKEN", "")
	webhookSecret := env("WEBHOOK_SECRET", "")

	cfg := Config{
		SQLitePath: dbPath,
		WebPath:    webPath,

		S3Endpoint:  env("S3_ENDPOINT", "s3.amazonaws.com"),
		S3Bucket:    s3Bucket,
		S3AccessKey: env("S3_ACCESS_KEY", ""),
		S3SecretKey: env("S3_SECRET_KEY", ""),
		S3UseSSL:    envBool("S3_USE_SSL", true),
		S3Region:    env("S3_REGION", "us-east-1"),

		PresignTTLSec: envInt("PRESIGN_TTL_SEC", 3600),

		IngestChunkSize: envInt("INGEST_CHUNK_SIZE", 200),

		AdminToken:    adminToken,
		WebhookSecret: webhookSecret,

		AuthEnabled:            envBool("AUTH_ENABLED", true),
		AuthCookieName:         env("AUTH_COOKIE_NAME", "archive_session"),
		AuthSessionTTLMinutes:  envInt("AUTH_SESSION_TTL_MINUTES", 720),
		AuthRegistrationMode:   env("AUTH_REGISTRATION_MODE", "closed"),
		AuthRegistrationSecret: env("AUTH_REGISTRATION_SECRET", ""),

		IngestSseDebug: envBool("INGEST_SSE_DEBUG", false),
	}

	fmt.Printf("[INFO] Using SQLite DB at: %s\n", dbPath)
	fmt.Printf("[INFO] Serving static UI from: %s\n", webPath)
	fmt.Printf("[INFO] S3 bucket: %s (endpoint %s)\n", s3Bucket, cfg.S3Endpoint)
	if s3Bucket == "" {
		fmt.Println("[WARN] S3_BUCKET is not set! Ingest will have nothing to list.")
	}
	if adminToken == "" {
		fmt.Println("[WARN] ADMIN_TOKEN is not set! Admin endpoints will be unprotected.")
	}
	if webhookSecret == "" {
		fmt.Println("[WARN] WEBHOOK_SECRET is not set! Storage webhook will be unprotected.")
	}
	return cfg
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}
