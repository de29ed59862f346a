package api

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"strings"

	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/transport/websocket"
)

// ChatStreamPath websocket 地址，相对 base URL 解析
const ChatStreamPath = "/ws/chat"

type ChatService service

// History 与某位顾客的对话记录，仅客服可用
func (s *ChatService) History(ctx context.Context, customerID int64) ([]ChatMessage, error) {
	var out []ChatMessage
	q := url.Values{"customerId": {strconv.FormatInt(customerID, 10)}}
	if err := s.client.get(ctx, "/chat/history", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ChatService) MyHistory(ctx context.Context) ([]ChatMessage, error) {
	var out []ChatMessage
	if err := s.client.get(ctx, "/chat/my-history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ChatService) MarkAsRead(ctx context.Context, messageID int64) error {
	q := url.Values{"messageId": {strconv.FormatInt(messageID, 10)}}
	return s.client.do(ctx, khttp.MethodPost, "/chat/mark-as-read", nil, nil, khttp.WithQuery(q))
}

func (s *ChatService) MarkConversationAsRead(ctx context.Context, customerID int64) error {
	q := url.Values{"customerId": {strconv.FormatInt(customerID, 10)}}
	return s.client.do(ctx, khttp.MethodPost, "/chat/mark-conversation-as-read", nil, nil, khttp.WithQuery(q))
}

// Ask 以 userID 的身份向聊天机器人提问
func (s *ChatService) Ask(ctx context.Context, userID int64, question string) (*ChatbotAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.Validation("question is required")
	}

	var out ChatbotAnswer
	body := map[string]any{"userId": userID, "message": question}
	if err := s.client.do(ctx, khttp.MethodPost, "/chatbot/ask", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users 列出有对话记录的用户，仅客服可用
func (s *ChatService) Users(ctx context.Context) ([]ChatUser, error) {
	var out []ChatUser
	if err := s.client.get(ctx, "/chat/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ChatService) SendToCustomer(ctx context.Context, receiverID int64, message string) (*ChatMessage, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.Validation("message is required")
	}
	q := url.Values{
		"receiverId": {strconv.FormatInt(receiverID, 10)},
		"message":    {message},
	}
	var out ChatMessage
	if err := s.client.do(ctx, khttp.MethodPost, "/chat/send-to-customer", nil, &out, khttp.WithQuery(q)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ChatService) SendToAgent(ctx context.Context, message string) (*ChatMessage, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.Validation("message is required")
	}
	var out ChatMessage
	q := url.Values{"message": {message}}
	if err := s.client.do(ctx, khttp.MethodPost, "/chat/send-to-agent", nil, &out, khttp.WithQuery(q)); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnreadCount 顾客 id 到未读消息数的映射
func (s *ChatService) UnreadCount(ctx context.Context) (map[int64]int64, error) {
	out := map[int64]int64{}
	if err := s.client.get(ctx, "/chat/unread-count", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamURL 由 base 与 token 生成 websocket 地址，http 转为 ws，https 转为 wss
func StreamURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Validation("invalid base url %q", base).WithCause(err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.Validation("unsupported base url scheme %q", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + ChatStreamPath
	u.RawQuery = url.Values{"token": {token}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// ChatStream 通过 websocket 接收实时消息
type ChatStream struct {
	conn *websocket.Client
}

// Stream 准备实时连接，每次（重）连都重新生成地址以使用最新的访问凭据
func (s *ChatService) Stream(opts ...websocket.Option) (*ChatStream, error) {
	b, ok := s.client.doer.(interface{ BaseURL() string })
	if !ok || b.BaseURL() == "" {
		return nil, errors.Validation("chat stream needs a client with a base url")
	}
	base := b.BaseURL()

	target := func() (string, error) {
		token, ok := (*AuthService)(s).AccessToken()
		if !ok {
			return "", errors.Session("no access token for chat stream")
		}
		return StreamURL(base, token)
	}
	return &ChatStream{conn: websocket.NewClient(target, opts...)}, nil
}

// Run 阻塞直到 ctx 结束或连接放弃重连
func (cs *ChatStream) Run(ctx context.Context) error {
	return cs.conn.Run(ctx)
}

func (cs *ChatStream) Connected() bool {
	return cs.conn.Connected()
}

// Receive 等待下一条消息，连接停止后返回 io.EOF，非聊天消息的帧被跳过
func (cs *ChatStream) Receive(ctx context.Context) (*ChatMessage, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case data, ok := <-cs.conn.Messages():
			if !ok {
				return nil, io.EOF
			}
			var msg ChatMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			return &msg, nil
		}
	}
}

func (cs *ChatStream) Send(ctx context.Context, msg ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return cs.conn.Send(ctx, data)
}
