package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

const maxPermissionMode = 0o777

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("mode", func(fl validator.FieldLevel) bool {
		mode, ok := parseOctal(fl.Field().String())
		return !ok || mode <= maxPermissionMode
	})
	return v
}

// Validate checks the configuration and returns blocking errors and advisory
// warnings. Warnings cover host state (missing directories, missing error
// clip) that may be fixed after the daemon starts. resolver may be nil to
// skip user_group resolution.
func (c *Config) Validate(resolver domain.IdentityResolver) (errs, warnings []string) {
	var verrs validator.ValidationErrors
	if err := newValidator().Struct(c); err != nil && !errors.As(err, &verrs) {
		errs = append(errs, err.Error())
	}
	for _, fe := range verrs {
		key := fieldKey(fe)
		if strings.HasPrefix(key, "permissions.") && !c.Permissions.Enabled {
			continue
		}
		errs = append(errs, describe(key, fe))
	}

	warnings = append(warnings, c.pathWarnings()...)

	if c.Permissions.Enabled && c.Permissions.UserGroup != "" && resolver != nil {
		if _, err := resolver.Resolve(c.Permissions.UserGroup); err != nil {
			errs = append(errs, fmt.Sprintf("permissions.user_group is invalid (%q): %v", c.Permissions.UserGroup, err))
		}
	}
	return errs, warnings
}

// fieldKey turns "Config.monitor.base_path" into "monitor.base_path".
func fieldKey(fe validator.FieldError) string {
	_, key, _ := strings.Cut(fe.Namespace(), ".")
	return key
}

func describe(key string, fe validator.FieldError) string {
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is empty", key)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s is empty", key)
		}
		return fmt.Sprintf("%s must be %s-65535, got: %v", key, fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be 1-%s, got: %v", key, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be a non-negative integer, got: %v", key, fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be a positive integer, got: %v", key, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got: %q", key, fe.Param(), fe.Value())
	case "startswith":
		return fmt.Sprintf("%s must start with %q, got: %q", key, fe.Param(), fe.Value())
	case "required_if":
		return fmt.Sprintf("%s is required when %s", key, strings.Replace(fe.Param(), " ", " is ", 1))
	case "url":
		return fmt.Sprintf("%s must be a URL, got: %q", key, fe.Value())
	case "mode":
		return fmt.Sprintf("%s must be an octal mode (0-0777), got: %q", key, fe.Value())
	default:
		return fmt.Sprintf("%s is not valid (%s)", key, fe.ActualTag())
	}
}

func (c *Config) pathWarnings() []string {
	var warnings []string

	if base := c.Monitor.BasePath; base != "" {
		switch {
		case !filepath.IsAbs(base):
			warnings = append(warnings, fmt.Sprintf("monitor.base_path is not absolute: %s", base))
		case !isDir(base):
			warnings = append(warnings, fmt.Sprintf("monitor.base_path does not exist or is not a directory: %s", base))
		}
	}

	staging := c.Monitor.HostStagingPath
	if staging == "" {
		return warnings
	}
	switch {
	case !filepath.IsAbs(staging):
		warnings = append(warnings, fmt.Sprintf("monitor.host_staging_path is not absolute: %s", staging))
	case !isDir(staging):
		warnings = append(warnings, fmt.Sprintf("monitor.host_staging_path does not exist or is not a directory: %s", staging))
	}

	if name := c.Monitor.ErrorVideoName; name != "" && isDir(staging) {
		candidate := filepath.Join(staging, name)
		if _, err := os.Stat(candidate); err != nil {
			warnings = append(warnings, fmt.Sprintf(
				"error video not found at host_staging_path: %s (used on corrupt/missing clips)", candidate))
		}
	}
	return warnings
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
