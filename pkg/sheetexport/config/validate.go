package config

import (
	"fmt"
	"strings"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted path to the field, e.g. "database.dsn".
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every invalid field of a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

var knownDrivers = []string{"sqlite3", "duckdb"}

// Validate checks cfg and returns a ValidationError listing every problem.
func Validate(cfg *Config) error {
	var errs []FieldError

	if !contains(knownDrivers, cfg.Database.Driver) {
		errs = append(errs, FieldError{"database.driver", fmt.Sprintf("must be one of %s", strings.Join(knownDrivers, ", "))})
	}
	if cfg.Database.DSN == "" {
		errs = append(errs, FieldError{"database.dsn", "is required"})
	}
	if cfg.Definitions == "" {
		errs = append(errs, FieldError{"definitions", "is required"})
	}

	switch cfg.Output.Format {
	case FormatXLSX:
		if cfg.Output.Path == "" {
			errs = append(errs, FieldError{"output.path", "is required for xlsx output"})
		}
		if cfg.Output.SheetsDir != "" {
			errs = append(errs, FieldError{"output.sheets_dir", "is only supported for json output"})
		}
	case FormatJSON:
	default:
		errs = append(errs, FieldError{"output.format", "must be xlsx or json"})
	}

	if !contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(cfg.Log.Level)) {
		errs = append(errs, FieldError{"log.level", "must be debug, info, warn or error"})
	}
	if !contains([]string{"text", "json"}, strings.ToLower(cfg.Log.Format)) {
		errs = append(errs, FieldError{"log.format", "must be text or json"})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
