package utils

import (
	"os"
	"strconv"
)

// BoolEnv returns the value of a boolean environment variable, or the
// default when the variable is unset or does not parse as a boolean
func BoolEnv(envVar string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(envVar)); err == nil {
		return value
	}

	return defaultValue
}

// StringEnv returns the value of an environment variable, or the default
// when the variable is unset
func StringEnv(envVar string, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}

	return defaultValue
}
