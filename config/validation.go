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

// ConfigRequirements defines what must be set for each environment
type ConfigRequirements struct {
	AllowedDrivers []string
	RequireSecrets bool
}

var (
	// Environment-specific requirements
	requirements = map[Environment]ConfigRequirements{
		Development: {AllowedDrivers: []string{"postgres", "sqlite"}},
		Test:        {AllowedDrivers: []string{"postgres", "sqlite"}},
		CI:          {AllowedDrivers: []string{"postgres", "sqlite"}, RequireSecrets: true},
		Production:  {AllowedDrivers: []string{"postgres"}, RequireSecrets: true},
	}
)

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	reqs, ok := requirements[cfg.Environment]
	if !ok {
		reqs = requirements[Development]
	}

	var errs []ValidationError

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{"SERVER_PORT", "is required"})
	}
	if !contains(reqs.AllowedDrivers, cfg.DBDriver) {
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("must be one of %s in %s", strings.Join(reqs.AllowedDrivers, ", "), cfg.Environment)})
	}
	if cfg.DBDriver == "sqlite" && cfg.DBPath == "" {
		errs = append(errs, ValidationError{"DB_PATH", "is required for sqlite"})
	}
	if len(cfg.CORSOrigins) == 0 {
		errs = append(errs, ValidationError{"CORS_ORIGINS", "must list at least one origin"})
	}
	if cfg.PageSize <= 0 {
		errs = append(errs, ValidationError{"PAGE_SIZE", "must be positive"})
	}

	if reqs.RequireSecrets {
		if cfg.JWTSecret == "" {
			errs = append(errs, ValidationError{"JWT_SECRET", "jwt_secret is required"})
		}
		if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"DB_PASSWORD", "db_password is required"})
		}
	} else if cfg.JWTSecret == "" {
		cfg.JWTSecret = "insecure-development-secret"
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
