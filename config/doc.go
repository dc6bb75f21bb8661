// Package config loads storagekit application configuration from YAML files
// and environment variables using viper, with optional .env loading via
// godotenv for development.
package config
