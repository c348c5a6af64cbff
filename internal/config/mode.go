package config

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

// Mask is an octal permission mask as written in the config file. It accepts
// a TOML string ("644", "0644", "0o644") or a bare integer whose decimal
// digits are read as octal (644).
type Mask string

// UnmarshalTOML implements toml.Unmarshaler for the file decoder.
func (m *Mask) UnmarshalTOML(v any) error {
	switch value := v.(type) {
	case string:
		*m = Mask(value)
	case int64:
		*m = Mask(strconv.FormatInt(value, 10))
	default:
		return fmt.Errorf("octal mask must be a string or integer, got %T", v)
	}
	return nil
}

// ParseOctalMode reads raw as an octal mode. Empty or unparsable input yields def.
func ParseOctalMode(raw string, def fs.FileMode) fs.FileMode {
	mode, ok := parseOctal(raw)
	if !ok {
		return def
	}
	return fs.FileMode(mode)
}

func parseOctal(raw string) (uint64, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.TrimPrefix(raw, "0o")
	if raw == "" {
		return 0, false
	}
	mode, err := strconv.ParseUint(raw, 8, 32)
	if err != nil {
		return 0, false
	}
	return mode, true
}
