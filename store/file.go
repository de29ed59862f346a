package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File 把所有键保存在磁盘上的一个 JSON 文档中，值必须是合法 JSON，
// 每次写入通过 rename 原子替换文件
type File struct {
	mu   sync.Mutex
	path string
	mem  *Memory
}

// NewFile 打开或创建 path 处的状态文件
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("store: empty file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: create state dir: %w", err)
	}

	f := &File{path: path, mem: NewMemory()}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path 状态文件路径
func (f *File) Path() string {
	return f.path
}

func (f *File) load() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: read %s: %w", f.path, err)
	}
	if len(raw) == 0 {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("store: corrupt state file %s: %w", f.path, err)
	}
	for k, v := range doc {
		f.mem.data[k] = []byte(v)
	}
	return nil
}

// flush must be called with mu held.
func (f *File) flush() error {
	f.mem.mu.RLock()
	doc := make(map[string]json.RawMessage, len(f.mem.data))
	for k, v := range f.mem.data {
		doc[k] = json.RawMessage(v)
	}
	f.mem.mu.RUnlock()

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*")
	if err != nil {
		return fmt.Errorf("store: write state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	return f.mem.Get(ctx, key)
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return ErrNotJSON
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.mem.Set(ctx, key, value); err != nil {
		return err
	}
	return f.flush()
}

func (f *File) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.mem.Delete(ctx, key); err != nil {
		return err
	}
	return f.flush()
}

func (f *File) Keys(ctx context.Context) ([]string, error) {
	return f.mem.Keys(ctx)
}

func (f *File) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.mem.Clear(ctx); err != nil {
		return err
	}
	return f.flush()
}

func (f *File) Close() error {
	return f.mem.Close()
}
