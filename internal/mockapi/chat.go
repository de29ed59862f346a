package mockapi

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/core/auth/jwt"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/log"
	transporthttp "github.com/kochabx/phoneshop/transport/http"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 16
)

// hub fans chat messages out to live websocket connections. Customers get
// what is addressed to them; agents get everything customers send.
type hub struct {
	mu     sync.Mutex
	conns  map[*peer]struct{}
	logger *log.Logger
}

type peer struct {
	userID int64
	agent  bool
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (p *peer) close() {
	p.once.Do(func() { close(p.send) })
}

func newHub(l *log.Logger) *hub {
	return &hub{conns: map[*peer]struct{}{}, logger: l}
}

func (h *hub) add(p *peer) {
	h.mu.Lock()
	h.conns[p] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(p *peer) {
	h.mu.Lock()
	delete(h.conns, p)
	h.mu.Unlock()
	p.close()
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.conns {
		delete(h.conns, p)
		p.close()
	}
}

// publish never blocks; a peer that cannot keep up is dropped.
func (h *hub) publish(msg api.ChatMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.conns {
		wanted := p.userID == msg.ReceiverID || (p.agent && !msg.FromAgent)
		if !wanted || p.userID == msg.SenderID {
			continue
		}
		select {
		case p.send <- data:
		default:
			h.logger.Warn().Int64("user_id", p.userID).Msg("chat peer too slow, dropping")
			delete(h.conns, p)
			p.close()
		}
	}
}

// Peers reports live websocket connections.
func (s *Server) Peers() int {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return len(s.hub.conns)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// chatStream authenticates with ?token= because browsers cannot set
// cookies on a cross-site websocket handshake.
func (s *Server) chatStream(c *gin.Context) {
	claims, err := s.verifyAccess(c.Request.Context(), c.Query("token"))
	if err != nil {
		transporthttp.GinJSONE(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	p := &peer{userID: claims.UserID, agent: isStaff(claims), conn: conn, send: make(chan []byte, wsSendBuffer)}
	s.hub.add(p)
	go s.writePeer(p)
	s.readPeer(p, claims)
}

func (s *Server) readPeer(p *peer, claims *jwt.UserClaims) {
	defer func() {
		s.hub.remove(p)
		p.conn.Close()
	}()

	p.conn.SetReadLimit(64 * 1024)
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		var in api.ChatMessage
		if err := json.Unmarshal(data, &in); err != nil || strings.TrimSpace(in.Content) == "" {
			continue
		}
		if p.agent && in.ReceiverID == 0 {
			continue
		}
		s.store(claims.UserID, in.ReceiverID, in.Content, p.agent)
	}
}

func (s *Server) writePeer(p *peer) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case data, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// store saves a message and pushes it to live peers.
func (s *Server) store(sender, receiver int64, content string, fromAgent bool) api.ChatMessage {
	s.data.mu.Lock()
	msg := api.ChatMessage{
		ID:         s.data.next(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		FromAgent:  fromAgent,
		SentAt:     api.NewTime(s.now()),
	}
	s.data.messages = append(s.data.messages, msg)
	s.data.mu.Unlock()

	s.hub.publish(msg)
	return msg
}

// conversation returns every message between customer and the agents.
func (s *Server) conversation(customer int64) []api.ChatMessage {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	var out []api.ChatMessage
	for _, m := range s.data.messages {
		if (!m.FromAgent && m.SenderID == customer) || (m.FromAgent && m.ReceiverID == customer) {
			out = append(out, m)
		}
	}
	return out
}

func (s *Server) myHistory(c *gin.Context) {
	transporthttp.GinJSON(c, s.conversation(claimsOf(c).UserID))
}

func (s *Server) history(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("customerId"), 10, 64)
	if err != nil || id <= 0 {
		transporthttp.GinJSONE(c, errors.BadRequest("customerId không hợp lệ"))
		return
	}
	transporthttp.GinJSON(c, s.conversation(id))
}

func (s *Server) sendToAgent(c *gin.Context) {
	content := strings.TrimSpace(c.Query("message"))
	if content == "" {
		transporthttp.GinJSONE(c, errors.BadRequest("Tin nhắn không được để trống"))
		return
	}
	transporthttp.GinJSON(c, s.store(claimsOf(c).UserID, 0, content, false))
}

func (s *Server) sendToCustomer(c *gin.Context) {
	receiver, err := strconv.ParseInt(c.Query("receiverId"), 10, 64)
	content := strings.TrimSpace(c.Query("message"))
	if err != nil || receiver <= 0 || content == "" {
		transporthttp.GinJSONE(c, errors.BadRequest("receiverId và message là bắt buộc"))
		return
	}
	transporthttp.GinJSON(c, s.store(claimsOf(c).UserID, receiver, content, true))
}

func (s *Server) markAsRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("messageId"), 10, 64)
	if err != nil {
		transporthttp.GinJSONE(c, errors.BadRequest("messageId không hợp lệ"))
		return
	}
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	for i := range s.data.messages {
		if s.data.messages[i].ID == id {
			s.data.messages[i].Read = true
			c.Status(http.StatusOK)
			return
		}
	}
	transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy tin nhắn"))
}

func (s *Server) markConversationAsRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("customerId"), 10, 64)
	if err != nil {
		transporthttp.GinJSONE(c, errors.BadRequest("customerId không hợp lệ"))
		return
	}
	s.data.mu.Lock()
	for i, m := range s.data.messages {
		if !m.FromAgent && m.SenderID == id {
			s.data.messages[i].Read = true
		}
	}
	s.data.mu.Unlock()
	c.Status(http.StatusOK)
}

func (s *Server) chatUsers(c *gin.Context) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	var out []api.ChatUser
	seen := map[int64]bool{}
	for _, m := range s.data.messages {
		if m.FromAgent || seen[m.SenderID] {
			continue
		}
		seen[m.SenderID] = true
		if acc, ok := s.data.accounts[m.SenderID]; ok {
			out = append(out, api.ChatUser{ID: acc.user.ID, FullName: acc.user.FullName, Email: acc.user.Email, Phone: acc.user.Phone})
		}
	}
	slices.SortFunc(out, func(a, b api.ChatUser) int { return int(a.ID - b.ID) })
	transporthttp.GinJSON(c, out)
}

func (s *Server) unreadCount(c *gin.Context) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	out := map[int64]int64{}
	for _, m := range s.data.messages {
		if !m.FromAgent && !m.Read {
			out[m.SenderID]++
		}
	}
	transporthttp.GinJSON(c, out)
}

type askBody struct {
	UserID  int64  `json:"userId"`
	Message string `json:"message" validate:"required"`
}

// ask answers with the products whose name shares a word with the question.
func (s *Server) ask(c *gin.Context) {
	var body askBody
	if !s.bind(c, &body) {
		return
	}
	words := strings.Fields(strings.ToLower(body.Message))
	matches := s.products(func(p *api.Product) bool {
		name := strings.ToLower(p.Name)
		return slices.ContainsFunc(words, func(w string) bool { return len(w) > 2 && strings.Contains(name, w) })
	})

	answer := api.ChatbotAnswer{Reply: "Xin lỗi, mình chưa tìm thấy sản phẩm phù hợp. Bạn có thể mô tả rõ hơn không?"}
	if len(matches) > 0 {
		names := make([]string, len(matches))
		for i, p := range matches {
			names[i] = p.Name
			answer.ProductIDs = append(answer.ProductIDs, p.ID)
		}
		answer.Reply = "Mình gợi ý cho bạn: " + strings.Join(names, ", ")
	}
	transporthttp.GinJSON(c, answer)
}
