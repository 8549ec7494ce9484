package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the configuration is usable for the
// current environment.
func ValidateConfig(cfg *Config) error {
	var errs []string

	if cfg.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBPassword == "" && IsProduction() {
			errs = append(errs, "DB_PASSWORD is required in production")
		}
	case "sqlite":
		// DBName doubles as the sqlite path; ":memory:" is fine.
	default:
		errs = append(errs, fmt.Sprintf("unsupported DB_DRIVER %q", cfg.DBDriver))
	}

	switch cfg.MediaBackend {
	case "local":
		if cfg.MediaDir == "" {
			errs = append(errs, "MEDIA_DIR is required for the local media backend")
		}
	case "s3":
		if cfg.S3Bucket == "" {
			errs = append(errs, "S3_BUCKET_NAME is required for the s3 media backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported MEDIA_BACKEND %q", cfg.MediaBackend))
	}

	if cfg.PageSize <= 0 {
		errs = append(errs, "PAGE_SIZE must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}
