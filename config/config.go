package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/kochabx/phoneshop/core/validator"
	"github.com/kochabx/phoneshop/log"
)

// DefaultFile is the file searched for when no explicit path is given.
const DefaultFile = "shopctl.yaml"

// Config loads a target struct and keeps it current.
type Config struct {
	mu       sync.RWMutex
	viper    *viper.Viper
	validate validator.Validator
	target   any
	loader   Loader
	path     string
	onChange []func()
}

// New creates a Config for target. Without a loader option the file
// shopctl.yaml is searched in the working directory and $HOME/.shopctl and is
// optional.
func New(target any, opts ...Option) *Config {
	c := &Config{
		viper:    viper.New(),
		validate: validator.Validate,
		target:   target,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		if c.path != "" {
			c.loader = NewFileLoaderFromPath(c.path, c.viper, c.validate)
		} else {
			c.loader = NewFileLoader(DefaultFile, searchPaths(), c.viper, c.validate, true)
		}
	}

	return c
}

// Load reads the configuration into the target.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loader.Load(c.target)
}

// Reload re-reads the configuration and runs change callbacks on success.
func (c *Config) Reload() error {
	c.mu.Lock()
	err := c.loader.Load(c.target)
	callbacks := append([]func(){}, c.onChange...)
	c.mu.Unlock()

	if err != nil {
		return err
	}
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// Watch reloads the target whenever the config file changes.
func (c *Config) Watch() error {
	return c.loader.Watch(func() {
		log.Info().Msg("config change detected")

		if err := c.Reload(); err != nil {
			log.Error().Err(err).Msg("failed to reload config after change")
			return
		}

		log.Info().Msg("config reloaded successfully")
	})
}

// Read runs fn while holding the read lock, so fn sees a consistent target.
func (c *Config) Read(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// Viper returns the underlying viper instance.
func (c *Config) Viper() *viper.Viper {
	return c.viper
}

func searchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".shopctl"))
	}
	return paths
}
