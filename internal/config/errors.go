package config

import "errors"

// Static errors
var (
	ErrConfigTooLarge     = errors.New("config file too large")
	ErrNegativeTimeout    = errors.New("timeout must not be negative")
	ErrInvalidListFlag    = errors.New("invalid loader list flag")
	ErrInvalidEnvEntry    = errors.New("invalid loader environment entry")
	ErrInvalidOutput      = errors.New("invalid output format")
	ErrInvalidLogSettings = errors.New("invalid log settings")
)
