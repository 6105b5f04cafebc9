package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/flagx"
	"github.com/dmitrijs2005/chatassist/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "15m" and integer nanoseconds.
//
// Pointer fields distinguish "absent" from "zero", so a partial file only
// overrides what it names.
type JsonConfig struct {
	HTTPAddr    *string `json:"http_addr"`
	Environment *string `json:"environment"`
	LogLevel    *string `json:"log_level"`

	SecretKey  *string         `json:"secret_key"`
	TokenTTL   *timex.Duration `json:"token_ttl"`
	BcryptCost *int            `json:"bcrypt_cost"`

	ThrottleBackend     *string         `json:"throttle_backend"`
	ThrottleMaxFailures *int            `json:"throttle_max_failures"`
	ThrottleLockout     *timex.Duration `json:"throttle_lockout"`

	StorageBackend *string `json:"storage_backend"`
	DatabaseDSN    *string `json:"database_dsn"`
	JSONFilePath   *string `json:"json_file_path"`

	RedisAddr     *string `json:"redis_addr"`
	RedisPassword *string `json:"redis_password"`
	RedisDB       *int    `json:"redis_db"`

	GeminiAPIKey     *string         `json:"gemini_api_key"`
	GeminiBaseURL    *string         `json:"gemini_base_url"`
	GeminiModels     []string        `json:"gemini_models"`
	GeminiRetryDelay *timex.Duration `json:"gemini_retry_delay"`
	GeminiMaxRetries *int            `json:"gemini_max_retries"`
	GeminiTimeout    *timex.Duration `json:"gemini_timeout"`

	ProtectedPrefixes []string `json:"protected_prefixes"`

	UploadBackend   *string `json:"upload_backend"`
	UploadDir       *string `json:"upload_dir"`
	UploadURLPrefix *string `json:"upload_url_prefix"`
	UploadMaxBytes  *int64  `json:"upload_max_bytes"`

	S3RootUser     *string `json:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
	S3PublicURL    *string `json:"s3_public_url"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; when
// neither is given nothing is loaded.
func parseJson(config *Config) error {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDurationIf(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

func (c *JsonConfig) apply(config *Config) {
	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.Environment, c.Environment)
	setIf(&config.LogLevel, c.LogLevel)

	setIf(&config.SecretKey, c.SecretKey)
	setDurationIf(&config.TokenTTL, c.TokenTTL)
	setIf(&config.BcryptCost, c.BcryptCost)

	setIf(&config.ThrottleBackend, c.ThrottleBackend)
	setIf(&config.ThrottleMaxFailures, c.ThrottleMaxFailures)
	setDurationIf(&config.ThrottleLockout, c.ThrottleLockout)

	setIf(&config.StorageBackend, c.StorageBackend)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.JSONFilePath, c.JSONFilePath)

	setIf(&config.RedisAddr, c.RedisAddr)
	setIf(&config.RedisPassword, c.RedisPassword)
	setIf(&config.RedisDB, c.RedisDB)

	setIf(&config.GeminiAPIKey, c.GeminiAPIKey)
	setIf(&config.GeminiBaseURL, c.GeminiBaseURL)
	if len(c.GeminiModels) > 0 {
		config.GeminiModels = c.GeminiModels
	}
	setDurationIf(&config.GeminiRetryDelay, c.GeminiRetryDelay)
	setIf(&config.GeminiMaxRetries, c.GeminiMaxRetries)
	setDurationIf(&config.GeminiTimeout, c.GeminiTimeout)

	if len(c.ProtectedPrefixes) > 0 {
		config.ProtectedPrefixes = c.ProtectedPrefixes
	}

	setIf(&config.UploadBackend, c.UploadBackend)
	setIf(&config.UploadDir, c.UploadDir)
	setIf(&config.UploadURLPrefix, c.UploadURLPrefix)
	setIf(&config.UploadMaxBytes, c.UploadMaxBytes)

	setIf(&config.S3RootUser, c.S3RootUser)
	setIf(&config.S3RootPassword, c.S3RootPassword)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setIf(&config.S3PublicURL, c.S3PublicURL)
}
