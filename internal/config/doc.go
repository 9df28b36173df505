// Package config loads and validates the gateway's YAML configuration.
//
// Files may reference environment variables with ${VAR} syntax; expansion
// happens before parsing, which is how credentials stay out of config files.
package config
