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

// ValidationErrors collects every problem found in a Config
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ve := range e {
		msgs = append(msgs, ve.Error())
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()

	var errs ValidationErrors

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{"SERVER_PORT", "is required"})
	}

	switch cfg.DBDriver {
	case "postgres":
		required := map[string]string{
			"DB_HOST":     cfg.DBHost,
			"DB_PORT":     cfg.DBPort,
			"DB_USER":     cfg.DBUser,
			"DB_NAME":     cfg.DBName,
			"DB_SSL_MODE": cfg.DBSSLMode,
		}
		for _, field := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_NAME", "DB_SSL_MODE"} {
			if required[field] == "" {
				errs = append(errs, ValidationError{field, "is required for the postgres driver"})
			}
		}
		if (env == Production || env == CI) && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"DB_PASSWORD", "is required in " + string(env)})
		}
	case "sqlite":
		if env == Production {
			errs = append(errs, ValidationError{"DB_DRIVER", "sqlite is not allowed in production"})
		}
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "is required for the sqlite driver"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", "is required"})
	} else if env == Production && cfg.JWTSecret == defaultDevJWTSecret {
		errs = append(errs, ValidationError{"JWT_SECRET", "must not use the development default in production"})
	}

	if cfg.TokenTTL <= 0 {
		errs = append(errs, ValidationError{"TOKEN_TTL", "must be positive"})
	}

	if cfg.S3Bucket == "" && cfg.MediaRoot == "" {
		errs = append(errs, ValidationError{"MEDIA_ROOT", "is required when S3_BUCKET_NAME is not set"})
	}

	if cfg.RecipeCreateLimit < 0 {
		errs = append(errs, ValidationError{"RECIPE_CREATE_LIMIT", "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
