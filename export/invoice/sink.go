package invoice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kochabx/phoneshop/store/oss/minio"
)

// DirSink 写入本地目录
type DirSink struct {
	Dir string
}

func (s DirSink) Save(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create invoice dir: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write invoice: %w", err)
	}
	return path, nil
}

// MinioSink 上传到对象存储并返回预签名下载地址
type MinioSink struct {
	Client *minio.Client
	Expiry time.Duration
}

func (s MinioSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	object, err := s.Client.Put(ctx, name, data)
	if err != nil {
		return "", err
	}
	u, err := s.Client.PresignedGet(ctx, object, s.Expiry)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
