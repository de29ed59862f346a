package minio

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kochabx/phoneshop/log"
)

// Client MinIO 客户端
type Client struct {
	config Config
	client *minio.Client
	logger *log.Logger
}

// Option 配置选项
type Option func(*Client)

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New 创建客户端，不发起网络请求
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}

	c := &Client{config: cfg, client: mc, logger: log.G}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EnsureBucket 桶不存在时创建
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return &ObjectError{Bucket: c.config.Bucket, Operation: "bucket_exists", Err: err}
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, c.config.Bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		return &ObjectError{Bucket: c.config.Bucket, Operation: "make_bucket", Err: err}
	}
	c.logger.Info().Str("bucket", c.config.Bucket).Msg("bucket created")
	return nil
}

// Put 上传对象，名称自动加上 Prefix，返回完整对象名
func (c *Client) Put(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" {
		return "", ErrEmptyObjectName
	}
	object := path.Join(c.config.Prefix, name)

	_, err := c.client.PutObject(ctx, c.config.Bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType(object)})
	if err != nil {
		return "", &ObjectError{Bucket: c.config.Bucket, Object: object, Operation: "put", Err: err}
	}
	return object, nil
}

// Exists 检查对象是否存在
func (c *Client) Exists(ctx context.Context, object string) (bool, error) {
	if object == "" {
		return false, ErrEmptyObjectName
	}

	_, err := c.client.StatObject(ctx, c.config.Bucket, object, minio.StatObjectOptions{})
	if err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "NoSuchKey" || code == "NotFound" {
			return false, nil
		}
		return false, &ObjectError{Bucket: c.config.Bucket, Object: object, Operation: "stat", Err: err}
	}
	return true, nil
}

// PresignedGet 生成下载链接，expires 为 0 时使用配置值
func (c *Client) PresignedGet(ctx context.Context, object string, expires time.Duration) (*url.URL, error) {
	if expires <= 0 {
		expires = c.config.PresignExpiry
	}
	u, err := c.client.PresignedGetObject(ctx, c.config.Bucket, object, expires, nil)
	if err != nil {
		return nil, &ObjectError{Bucket: c.config.Bucket, Object: object, Operation: "presign_get", Err: err}
	}
	return u, nil
}

// Bucket 目标桶
func (c *Client) Bucket() string {
	return c.config.Bucket
}

func contentType(object string) string {
	if ct := mime.TypeByExtension(filepath.Ext(object)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
