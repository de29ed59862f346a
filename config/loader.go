package config

import "github.com/spf13/viper"

// Loader loads configuration into a target struct.
type Loader interface {
	// Load loads the configuration into the target
	Load(target any) error

	// Watch invokes callback whenever the underlying source changes
	Watch(callback func()) error
}

// Defaulter is implemented by targets that register their own defaults.
// Defaults are registered on viper so env overrides and file values layer on top.
type Defaulter interface {
	SetDefaults(v *viper.Viper)
}
