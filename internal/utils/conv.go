package utils

import (
	"strconv"

	"github.com/juju/errors"
)

// StringToInt converts s to int, returning fallback when s is empty or invalid.
func StringToInt(s string, fallback int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return i
}

// ParseID parses a positive numeric id from a path or query value.
func ParseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, errors.NotValidf("id %q", s)
	}
	return uint(n), nil
}
