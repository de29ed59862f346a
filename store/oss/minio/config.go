package minio

import (
	"errors"
	"time"
)

// Config MinIO 客户端配置
type Config struct {
	Endpoint        string        `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string        `json:"accessKeyId" mapstructure:"access_key_id"`
	SecretAccessKey string        `json:"secretAccessKey" mapstructure:"secret_access_key"`
	UseSSL          bool          `json:"useSSL" mapstructure:"use_ssl"`
	Region          string        `json:"region" mapstructure:"region"`
	Bucket          string        `json:"bucket" mapstructure:"bucket"`
	Prefix          string        `json:"prefix" mapstructure:"prefix"`
	PresignExpiry   time.Duration `json:"presignExpiry" mapstructure:"presign_expiry"`
}

// Enabled 是否配置了对象存储
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

func (c Config) withDefaults() Config {
	if c.PresignExpiry <= 0 {
		c.PresignExpiry = time.Hour
	}
	if c.Bucket == "" {
		c.Bucket = "invoices"
	}
	return c
}

// Validate 验证配置
func (c Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("minio: endpoint cannot be empty")
	case c.AccessKeyID == "":
		return errors.New("minio: access key ID cannot be empty")
	case c.SecretAccessKey == "":
		return errors.New("minio: secret access key cannot be empty")
	}
	return nil
}
