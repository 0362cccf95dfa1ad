// Package config loads and validates application configuration from
// environment variables and an optional config file. Environment variables
// take precedence over file values; absent values fall back to defaults
// rather than erroring.
package config
