// Package config reads cmd/stompcat's configuration from the
// environment, adapted from common/config. The core stomp packages never
// read the environment themselves (SPEC_FULL.md §4.12); only the example
// binary does.
package config

import "os"

// GetEnv returns the value of key, or defaultValue if it is unset or empty.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// MustGetEnv returns the value of key, panicking if it is unset or empty.
func MustGetEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic("required environment variable not set: " + key)
	}
	return v
}
