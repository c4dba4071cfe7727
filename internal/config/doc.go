// Package config loads runtime configuration from multiple sources (a .env
// settings file, YAML files, environment variables, CLI flags) with
// precedence: CLI flags > Environment variables > YAML config > Defaults.
// The settings file only fills environment variables that are not already
// set. It exposes strongly typed settings to the rest of the application.
package config
