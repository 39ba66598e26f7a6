package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with environment variables. A dotenv file given
// with -env is loaded first; otherwise ./.env is loaded when present. Values
// already set in the process environment win over the file.
//
// Variable names match the deployment .env files:
//
//	SECRET_KEY, SECRET_KEY_REFRESH
//	JWT_ACCESS_TOKEN_EXPIRES_MINUTES, JWT_REFRESH_TOKEN_EXPIRES_MINUTES
//	HTTP_ADDRESS, GRPC_ADDRESS, DATABASE_DSN, BCRYPT_COST, COOKIE_SECURE
//	CORS_ALLOWED_ORIGINS (comma separated)
//	STORAGE_BACKEND, STORAGE_DIR
//	S3_ACCESS_KEY, S3_SECRET_KEY, S3_BUCKET_NAME, S3_REGION, S3_ENDPOINT_URL
//	OTEL_EXPORTER_OTLP_ENDPOINT, LOG_LEVEL
//
// Malformed numeric or boolean values panic, like malformed JSON or flags.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	setString(&config.EndpointAddrHTTP, "HTTP_ADDRESS")
	setString(&config.EndpointAddrGRPC, "GRPC_ADDRESS")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.AccessSecretKey, "SECRET_KEY")
	setString(&config.RefreshSecretKey, "SECRET_KEY_REFRESH")
	setMinutes(&config.AccessTokenValidityDuration, "JWT_ACCESS_TOKEN_EXPIRES_MINUTES")
	setMinutes(&config.RefreshTokenValidityDuration, "JWT_REFRESH_TOKEN_EXPIRES_MINUTES")
	setInt(&config.BcryptCost, "BCRYPT_COST")
	setBool(&config.CookieSecure, "COOKIE_SECURE")
	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		config.AllowedOrigins = splitList(v)
	}
	setString(&config.StorageBackend, "STORAGE_BACKEND")
	setString(&config.LocalStorageDir, "STORAGE_DIR")
	setString(&config.S3RootUser, "S3_ACCESS_KEY")
	setString(&config.S3RootPassword, "S3_SECRET_KEY")
	setString(&config.S3Bucket, "S3_BUCKET_NAME")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_ENDPOINT_URL")
	setString(&config.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&config.LogLevel, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		*dst = n
	}
}

func setMinutes(dst *time.Duration, key string) {
	var n int
	setInt(&n, key)
	if n != 0 {
		*dst = time.Duration(n) * time.Minute
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		*dst = b
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
