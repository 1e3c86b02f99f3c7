package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// parseEnv overlays values from the process environment. The variable
// names match the ones the deployment scripts already export.
//
//	PORT / HTTP_ADDR                 listen port or full bind address
//	ENVIRONMENT / NODE_ENV           deployment environment
//	LOG_LEVEL                        debug, info, warn or error
//	DATABASE_DSN                     full PostgreSQL DSN
//	DB_HOST, DB_PORT, DB_USER,
//	DB_PASS, DB_NAME, DB_SSLMODE     DSN parts used when DATABASE_DSN is unset
//	JWT_SECRET                       token signing secret
//	AWS_ACCESS_KEY_ID                object store credentials
//	AWS_SECRET_ACCESS_KEY
//	AWS_REGION
//	S3_BUCKET_NAME
//	S3_ENDPOINT                      custom endpoint (MinIO); enables path style
//	FRONTEND_URL                     allowed CORS origin
//	RECORD_UPLOAD_METADATA           "false" disables the files table
func parseEnv(config *Config) {
	if port := getenv("PORT"); port != "" {
		config.EndpointAddrHTTP = ":" + port
	}
	setString(&config.EndpointAddrHTTP, getenv("HTTP_ADDR"))

	setString(&config.Environment, getenv("NODE_ENV"))
	setString(&config.Environment, getenv("ENVIRONMENT"))
	setString(&config.LogLevel, getenv("LOG_LEVEL"))

	if dsn := getenv("DATABASE_DSN"); dsn != "" {
		config.DatabaseDSN = dsn
	} else if host := getenv("DB_HOST"); host != "" {
		config.DatabaseDSN = buildPostgresDSN(
			host,
			getenvDefault("DB_PORT", "5432"),
			getenvDefault("DB_USER", "postgres"),
			getenv("DB_PASS"),
			getenvDefault("DB_NAME", "cloudnotes"),
			getenvDefault("DB_SSLMODE", "disable"),
		)
	}

	setString(&config.SecretKey, getenv("JWT_SECRET"))

	setString(&config.S3RootUser, getenv("AWS_ACCESS_KEY_ID"))
	setString(&config.S3RootPassword, getenv("AWS_SECRET_ACCESS_KEY"))
	setString(&config.S3Region, getenv("AWS_REGION"))
	setString(&config.S3Bucket, getenv("S3_BUCKET_NAME"))
	if endpoint := getenv("S3_ENDPOINT"); endpoint != "" {
		config.S3BaseEndpoint = endpoint
		config.S3UsePathStyle = true
	}

	setString(&config.CORSAllowedOrigin, getenv("FRONTEND_URL"))

	if v := getenv("RECORD_UPLOAD_METADATA"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.RecordUploadMetadata = b
		}
	}
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func buildPostgresDSN(host, port, user, password, name, sslmode string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     fmt.Sprintf("%s:%s", host, port),
		Path:     "/" + name,
		RawQuery: url.Values{"sslmode": []string{sslmode}}.Encode(),
	}
	return u.String()
}
