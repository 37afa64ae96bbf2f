// Package config loads engine settings from a file and ANIMA_ prefixed
// environment variables using viper, and validates them with
// go-playground/validator struct tags.
package config
