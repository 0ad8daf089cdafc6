// Package config provides configuration loading and validation for the voice capture client.
// It handles YAML-based configuration layered over built-in defaults, so a partial
// file only needs the keys it changes.
package config
