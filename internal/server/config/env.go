package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/flagx"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// defaultEnvFile is read when present and no -env flag is given.
const defaultEnvFile = ".env"

// loadEnv collects variables from a dotenv file (optional) and then from
// the process environment, which takes precedence.
func loadEnv(envPath string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	explicit := envPath != ""
	if !explicit {
		envPath = defaultEnvFile
	}

	if _, err := os.Stat(envPath); err == nil {
		if err := k.Load(file.Provider(envPath), dotenv.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	} else if explicit {
		return nil, err
	}

	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	return k, nil
}

// envReader applies typed values from koanf onto Config fields, keeping the
// first conversion error.
type envReader struct {
	k   *koanf.Koanf
	err error
}

func (r *envReader) lookup(key string) (string, bool) {
	if !r.k.Exists(key) {
		return "", false
	}
	return strings.TrimSpace(r.k.String(key)), true
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.lookup(key); ok {
		*dst = v
	}
}

func (r *envReader) list(key string, dst *[]string) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func (r *envReader) integer(key string, dst *int) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, err)
		return
	}
	*dst = n
}

func (r *envReader) int64(key string, dst *int64) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(key, err)
		return
	}
	*dst = n
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return
	}
	*dst = d
}

func (r *envReader) fail(key string, err error) {
	r.err = errors.Join(r.err, fmt.Errorf("%s: %w", key, err))
}

// parseEnv overlays Config with environment variables. A dotenv file named by
// -env (or ./.env when present) is loaded first; real environment variables
// override it.
//
// Recognised variables:
//
//	HTTP_ADDR, ENVIRONMENT, LOG_LEVEL, JWT_SECRET, TOKEN_TTL, BCRYPT_COST,
//	THROTTLE_BACKEND, THROTTLE_MAX_FAILURES, THROTTLE_LOCKOUT,
//	STORAGE_BACKEND, DATABASE_URL, JSON_DB_PATH,
//	REDIS_ADDR, REDIS_PASSWORD, REDIS_DB,
//	GOOGLE_GENERATIVE_AI_API_KEY, GEMINI_BASE_URL, GEMINI_MODELS,
//	GEMINI_RETRY_DELAY, GEMINI_MAX_RETRIES, GEMINI_TIMEOUT,
//	UPLOAD_BACKEND, UPLOAD_DIR, UPLOAD_URL_PREFIX, UPLOAD_MAX_BYTES,
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION,
//	S3_BASE_ENDPOINT, S3_PUBLIC_URL
func parseEnv(config *Config) error {
	k, err := loadEnv(flagx.EnvFileFlags())
	if err != nil {
		return err
	}

	r := &envReader{k: k}

	r.str("HTTP_ADDR", &config.HTTPAddr)
	r.str("ENVIRONMENT", &config.Environment)
	r.str("LOG_LEVEL", &config.LogLevel)

	r.str("JWT_SECRET", &config.SecretKey)
	r.duration("TOKEN_TTL", &config.TokenTTL)
	r.integer("BCRYPT_COST", &config.BcryptCost)

	r.str("THROTTLE_BACKEND", &config.ThrottleBackend)
	r.integer("THROTTLE_MAX_FAILURES", &config.ThrottleMaxFailures)
	r.duration("THROTTLE_LOCKOUT", &config.ThrottleLockout)

	r.str("STORAGE_BACKEND", &config.StorageBackend)
	r.str("DATABASE_URL", &config.DatabaseDSN)
	r.str("JSON_DB_PATH", &config.JSONFilePath)

	r.str("REDIS_ADDR", &config.RedisAddr)
	r.str("REDIS_PASSWORD", &config.RedisPassword)
	r.integer("REDIS_DB", &config.RedisDB)

	r.str("GOOGLE_GENERATIVE_AI_API_KEY", &config.GeminiAPIKey)
	r.str("GEMINI_BASE_URL", &config.GeminiBaseURL)
	r.list("GEMINI_MODELS", &config.GeminiModels)
	r.duration("GEMINI_RETRY_DELAY", &config.GeminiRetryDelay)
	r.integer("GEMINI_MAX_RETRIES", &config.GeminiMaxRetries)
	r.duration("GEMINI_TIMEOUT", &config.GeminiTimeout)

	r.str("UPLOAD_BACKEND", &config.UploadBackend)
	r.str("UPLOAD_DIR", &config.UploadDir)
	r.str("UPLOAD_URL_PREFIX", &config.UploadURLPrefix)
	r.int64("UPLOAD_MAX_BYTES", &config.UploadMaxBytes)

	r.str("S3_ROOT_USER", &config.S3RootUser)
	r.str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	r.str("S3_BUCKET", &config.S3Bucket)
	r.str("S3_REGION", &config.S3Region)
	r.str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	r.str("S3_PUBLIC_URL", &config.S3PublicURL)

	return r.err
}
