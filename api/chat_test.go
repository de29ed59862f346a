package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	khttp "github.com/kochabx/phoneshop/core/net/http"
	"github.com/kochabx/phoneshop/errors"
	ws "github.com/kochabx/phoneshop/transport/websocket"
)

func TestStreamURL(t *testing.T) {
	tests := []struct {
		base, want string
		wantErr    bool
	}{
		{base: "http://localhost:8080/api", want: "ws://localhost:8080/api/ws/chat?token=abc"},
		{base: "https://shop.example.vn/api/", want: "wss://shop.example.vn/api/ws/chat?token=abc"},
		{base: "http://localhost:8080", want: "ws://localhost:8080/ws/chat?token=abc"},
		{base: "ftp://example.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := StreamURL(tt.base, "abc")
			if tt.wantErr {
				assert.True(t, errors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChatSendToCustomerUsesQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/send-to-customer", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeJSON(w, http.StatusOK, map[string]any{
			"id": 1, "senderId": 0, "receiverId": 12, "content": q.Get("message"),
		})
	})
	mux.HandleFunc("GET /chat/unread-count", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"12": 3, "15": 1})
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	msg, err := c.Chat.SendToCustomer(ctx, 12, "Dạ shop đã nhận đơn ạ")
	require.NoError(t, err)
	assert.Equal(t, "Dạ shop đã nhận đơn ạ", msg.Content)
	assert.Equal(t, int64(12), msg.ReceiverID)

	_, err = c.Chat.SendToAgent(ctx, "   ")
	assert.True(t, errors.IsValidation(err))

	counts, err := c.Chat.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{12: 3, 15: 1}, counts)
}

func TestChatAsk(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chatbot/ask", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID  int64  `json:"userId"`
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(5), body.UserID)
		writeJSON(w, http.StatusOK, ChatbotAnswer{Reply: "Có ạ", ProductIDs: []int64{3}})
	})
	c, _ := newTestClient(t, mux)

	ans, err := c.Chat.Ask(context.Background(), 5, "Còn iPhone 15 không?")
	require.NoError(t, err)
	assert.Equal(t, "Có ạ", ans.Reply)
	assert.Equal(t, []int64{3}, ans.ProductIDs)
}

func TestChatStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	tokens := make(chan string, 4)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: CookieAccessToken, Value: "tok-1", Path: "/"})
		writeJSON(w, http.StatusOK, Message{Message: "ok"})
	})
	mux.HandleFunc("GET /ws/chat", func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.URL.Query().Get("token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`"not a message"`))
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m ChatMessage
			if json.Unmarshal(data, &m) != nil {
				return
			}
			m.ID = 42
			m.FromAgent = true
			reply, _ := json.Marshal(m)
			if conn.WriteMessage(websocket.TextMessage, reply) != nil {
				return
			}
		}
	})
	c, _ := newTestClient(t, mux)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := c.Auth.Login(ctx, Credentials{Email: "an@example.com", Password: "secret"})
	require.NoError(t, err)

	stream, err := c.Chat.Stream(ws.WithConfig(ws.DefaultConfig()))
	require.NoError(t, err)
	go stream.Run(ctx)

	select {
	case tok := <-tokens:
		assert.Equal(t, "tok-1", tok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream never connected")
	}
	require.Eventually(t, stream.Connected, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, stream.Send(ctx, ChatMessage{SenderID: 5, Content: "Xin chào"}))

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	got, err := stream.Receive(recvCtx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "Xin chào", got.Content)
	assert.True(t, got.FromAgent)
}

func TestChatStreamNeedsBaseURL(t *testing.T) {
	c := New(khttpStub{})
	_, err := c.Chat.Stream()
	assert.True(t, errors.IsValidation(err))
}

type khttpStub struct{}

func (khttpStub) Request(string, string, any, ...func(*khttp.RequestOption)) (*http.Response, error) {
	return nil, errors.ServiceUnavailable("stub")
}
