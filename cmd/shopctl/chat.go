package main

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/app"
	"github.com/kochabx/phoneshop/errors"
	ws "github.com/kochabx/phoneshop/transport/websocket"
)

// runChat 先打印历史消息，再实时接收新消息，同时把标准输入的每一行发给商家。
// 遇到 EOF 或信号时结束
func runChat(ctx context.Context, e *env, _ []string) error {
	if err := e.session.Verify(ctx, "/chat"); err != nil {
		return err
	}

	history, err := e.api.Chat.MyHistory(ctx)
	if err != nil {
		return err
	}
	for _, m := range history {
		e.printChat(m)
	}

	stream, err := e.api.Chat.Stream(ws.WithLogger(e.logger))
	if err != nil {
		return err
	}

	var a *app.Application
	a = app.New(
		app.WithContext(ctx),
		app.WithLogger(e.logger),
		app.WithWorker("stream", stream.Run),
		app.WithWorker("receive", func(ctx context.Context) error {
			for {
				msg, err := stream.Receive(ctx)
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
				e.printChat(*msg)
			}
		}),
		app.WithWorker("send", func(ctx context.Context) error {
			defer a.Stop()
			lines := make(chan string)
			go func() {
				defer close(lines)
				sc := bufio.NewScanner(e.in)
				for sc.Scan() {
					select {
					case lines <- sc.Text():
					case <-ctx.Done():
						return
					}
				}
			}()
			for {
				select {
				case <-ctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					line = strings.TrimSpace(line)
					if line == "" {
						continue
					}
					if err := stream.Send(ctx, api.ChatMessage{Content: line}); err != nil {
						e.logger.Warn().Err(err).Msg("send chat message")
					}
				}
			}
		}),
	)
	return a.Start()
}

func (e *env) printChat(m api.ChatMessage) {
	who := "Bạn"
	if m.FromAgent {
		who = "Shop"
	}
	at := m.SentAt.Time
	if at.IsZero() {
		at = time.Now()
	}
	e.printf("[%s] %s: %s\n", at.Local().Format("15:04"), who, m.Content)
}
