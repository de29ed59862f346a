// Package events 发布会话与购物车变更的审计事件
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type 事件类型
type Type string

const (
	SessionLogin     Type = "session.login"
	SessionLogout    Type = "session.logout"
	SessionRefreshed Type = "session.refreshed"
	SessionExpired   Type = "session.expired"
	CartUpdated      Type = "cart.updated"
	CartCleared      Type = "cart.cleared"
)

// Event 一条审计记录
type Event struct {
	ID      string         `json:"id"`
	Type    Type           `json:"type"`
	Subject string         `json:"subject,omitempty"`
	At      time.Time      `json:"at"`
	Data    map[string]any `json:"data,omitempty"`
}

// New 生成带新 id 与当前时间的事件
func New(t Type, subject string, data map[string]any) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    t,
		Subject: subject,
		At:      time.Now().UTC(),
		Data:    data,
	}
}

// Publisher 事件投递
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// Nop 丢弃所有事件
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) error { return nil }
func (Nop) Close() error                            { return nil }

// Recorder 在内存中记录已发布的事件
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, events ...Event) error {
	r.mu.Lock()
	r.events = append(r.events, events...)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events 返回已记录事件的副本
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types 按发布顺序列出事件类型
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
