package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/cloudnotes/internal/flagx"
	"github.com/dmitrijs2005/cloudnotes/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Duration
// fields accept "15m" style strings or integer nanoseconds. Absent fields
// leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	Environment                 string         `json:"environment"`
	LogLevel                    string         `json:"log_level"`
	DatabaseDSN                 string         `json:"database_dsn"`
	DBMaxOpenConns              int            `json:"db_max_open_conns"`
	DBMaxIdleConns              int            `json:"db_max_idle_conns"`
	DBConnMaxIdleTime           timex.Duration `json:"db_conn_max_idle_time"`
	StoreTimeout                timex.Duration `json:"store_timeout"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	S3UsePathStyle              *bool          `json:"s3_use_path_style"`
	S3Timeout                   timex.Duration `json:"s3_timeout"`
	PresignValidityDuration     timex.Duration `json:"presign_validity_duration"`
	UploadMaxBytes              int64          `json:"upload_max_bytes"`
	RecordUploadMetadata        *bool          `json:"record_upload_metadata"`
	CORSAllowedOrigin           string         `json:"cors_allowed_origin"`
	ShutdownTimeout             timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads the file named by -c/-config into config. Nothing
// happens when no path is given; an unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.CORSAllowedOrigin, c.CORSAllowedOrigin)

	if c.DBMaxOpenConns > 0 {
		config.DBMaxOpenConns = c.DBMaxOpenConns
	}
	if c.DBMaxIdleConns > 0 {
		config.DBMaxIdleConns = c.DBMaxIdleConns
	}
	if c.UploadMaxBytes > 0 {
		config.UploadMaxBytes = c.UploadMaxBytes
	}
	if c.S3UsePathStyle != nil {
		config.S3UsePathStyle = *c.S3UsePathStyle
	}
	if c.RecordUploadMetadata != nil {
		config.RecordUploadMetadata = *c.RecordUploadMetadata
	}

	setDuration(&config.DBConnMaxIdleTime, c.DBConnMaxIdleTime)
	setDuration(&config.StoreTimeout, c.StoreTimeout)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.S3Timeout, c.S3Timeout)
	setDuration(&config.PresignValidityDuration, c.PresignValidityDuration)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
