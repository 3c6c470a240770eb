package common

import (
	"os"
	"strings"
)

const trueStr = "true"

// EnvOr returns the trimmed value of key, or fallback when it is unset or blank
func EnvOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// EnvBool reports whether key is set to "true"
func EnvBool(key string) bool {
	return os.Getenv(key) == trueStr
}
