package config

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidConfig = errors.New("invalid config")

// Validate refuses configurations the server cannot run with. A missing or
// short signing secret is an error, never silently replaced.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("%w: secret key is not set (JWT_SECRET)", ErrInvalidConfig)
	}
	if len(c.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("%w: secret key must be at least %d bytes", ErrInvalidConfig, MinSecretKeyLength)
	}

	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if !slices.Contains([]string{BackendMemory, BackendRedis}, c.ThrottleBackend) {
		return fmt.Errorf("%w: unknown throttle backend %q", ErrInvalidConfig, c.ThrottleBackend)
	}
	if !slices.Contains([]string{BackendLocal, BackendS3}, c.UploadBackend) {
		return fmt.Errorf("%w: unknown upload backend %q", ErrInvalidConfig, c.UploadBackend)
	}

	if c.TokenTTL <= 0 || c.ThrottleLockout <= 0 {
		return fmt.Errorf("%w: durations must be positive", ErrInvalidConfig)
	}
	if c.ThrottleMaxFailures <= 0 {
		return fmt.Errorf("%w: throttle max failures must be positive", ErrInvalidConfig)
	}
	if c.GeminiMaxRetries < 0 || c.GeminiRetryDelay < 0 {
		return fmt.Errorf("%w: retry policy must not be negative", ErrInvalidConfig)
	}
	if len(c.GeminiModels) == 0 {
		return fmt.Errorf("%w: at least one model is required", ErrInvalidConfig)
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("%w: upload size limit must be positive", ErrInvalidConfig)
	}

	return nil
}

// ValidateStorage checks only the storage backend selection.
func (c *Config) ValidateStorage() error {
	if !slices.Contains([]string{BackendMemory, BackendJSONFile, BackendRedis, BackendPostgres, BackendSQLite}, c.StorageBackend) {
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.StorageBackend)
	}
	return nil
}
