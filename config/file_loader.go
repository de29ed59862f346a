package config

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/kochabx/phoneshop/core/validator"
	"github.com/kochabx/phoneshop/errors"
)

// EnvPrefix prefixes every environment override, e.g. SHOPCTL_CLIENT_BASE_URL.
const EnvPrefix = "SHOPCTL"

// FileLoader loads configuration from a file, the environment and registered defaults.
type FileLoader struct {
	viper    *viper.Viper
	validate validator.Validator
	name     string
	paths    []string
	optional bool
}

// NewFileLoader creates a loader for name (with extension) searched in paths.
// When optional is true a missing file is not an error.
func NewFileLoader(name string, paths []string, v *viper.Viper, validate validator.Validator, optional bool) *FileLoader {
	ext := filepath.Ext(name)

	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName(strings.TrimSuffix(name, ext))
	v.SetConfigType(strings.TrimPrefix(ext, "."))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &FileLoader{
		viper:    v,
		validate: validate,
		name:     name,
		paths:    paths,
		optional: optional,
	}
}

// NewFileLoaderFromPath creates a loader for an explicit file path.
func NewFileLoaderFromPath(path string, v *viper.Viper, validate validator.Validator) *FileLoader {
	l := NewFileLoader(filepath.Base(path), []string{filepath.Dir(path)}, v, validate, false)
	v.SetConfigFile(path)
	return l
}

func (l *FileLoader) Load(target any) error {
	if d, ok := target.(Defaulter); ok {
		d.SetDefaults(l.viper)
		bindEnv(l.viper)
	}

	if err := l.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || !l.optional {
			return errors.New(404, "config file not found: %v", err)
		}
	}

	if err := l.viper.Unmarshal(target); err != nil {
		return errors.New(500, "config parse error: %v", err)
	}

	if l.validate != nil {
		if err := l.validate.Struct(target); err != nil {
			return errors.New(400, "config validation failed: %v", err)
		}
	}

	return nil
}

func (l *FileLoader) Watch(callback func()) error {
	if l.viper.ConfigFileUsed() == "" {
		return errors.New(404, "no config file to watch")
	}

	l.viper.OnConfigChange(func(e fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})
	l.viper.WatchConfig()
	return nil
}

// bindEnv binds every known key so AutomaticEnv also applies during Unmarshal.
func bindEnv(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}
}
