// Package config loads application configuration from ANTAEUS_* environment
// variables and validates it before the process starts serving.
package config
