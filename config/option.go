package config

import (
	"github.com/spf13/viper"

	"github.com/kochabx/phoneshop/core/validator"
)

// Option configures a Config.
type Option func(*Config)

func WithViper(v *viper.Viper) Option {
	return func(c *Config) {
		c.viper = v
	}
}

func WithValidator(v validator.Validator) Option {
	return func(c *Config) {
		c.validate = v
	}
}

func WithLoader(loader Loader) Option {
	return func(c *Config) {
		c.loader = loader
	}
}

// WithFile loads from an explicit path instead of searching for shopctl.yaml.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// OnChange registers a callback run after every successful reload.
func OnChange(fn func()) Option {
	return func(c *Config) {
		if fn != nil {
			c.onChange = append(c.onChange, fn)
		}
	}
}
