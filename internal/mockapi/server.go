// Package mockapi 内存版商城后端，沿用基于 cookie 的认证约定，
// 测试可借此注入认证故障
package mockapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/core/auth/jwt"
	"github.com/kochabx/phoneshop/core/metrics"
	"github.com/kochabx/phoneshop/core/rate"
	"github.com/kochabx/phoneshop/core/validator"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/log"
	middleware "github.com/kochabx/phoneshop/middleware/http"
	transporthttp "github.com/kochabx/phoneshop/transport/http"
)

// Server 模拟后端
type Server struct {
	config    Config
	auth      *jwt.Authenticator
	data      *data
	faults    *Faults
	hub       *hub
	limiter   rate.Limiter
	blacklist jwt.Blacklist
	validator validator.Validator
	metrics   *metrics.Server
	prom      *metrics.Prometheus
	logger    *log.Logger
	now       func() time.Time

	engine *gin.Engine
	http   *transporthttp.Server
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithLoginLimiter 按客户端地址对 /auth/login 限流
func WithLoginLimiter(l rate.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithBlacklist 保存已吊销的 token id，默认在内存中
func WithBlacklist(b jwt.Blacklist) Option {
	return func(s *Server) {
		s.blacklist = b
	}
}

// WithPrometheus 在 /metrics 暴露服务指标
func WithPrometheus(p *metrics.Prometheus) Option {
	return func(s *Server) {
		s.prom = p
	}
}

// WithHashCost 设置 bcrypt 代价，测试使用 bcrypt.MinCost
func WithHashCost(cost int) Option {
	return func(s *Server) {
		s.data.cost = cost
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New 创建服务并写入演示账号与商品
func New(cfg Config, opts ...Option) (*Server, error) {
	s := &Server{
		config:    cfg.withDefaults(),
		data:      newData(bcrypt.DefaultCost),
		faults:    &Faults{},
		validator: validator.Validate,
		logger:    log.G,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	authOpts := []jwt.Option{jwt.WithClock(s.now)}
	if s.blacklist != nil {
		authOpts = append(authOpts, jwt.WithBlacklist(s.blacklist))
	}
	auth, err := jwt.New(jwt.Config{
		Secret:          s.config.Secret,
		AccessTokenTTL:  s.config.AccessTTL,
		RefreshTokenTTL: s.config.RefreshTTL,
		Issuer:          "phoneshop-mock",
	}, authOpts...)
	if err != nil {
		return nil, err
	}
	s.auth = auth

	if err := s.data.seed(s.now()); err != nil {
		return nil, err
	}
	s.hub = newHub(s.logger)

	var httpOpts []transporthttp.Option
	s.engine = gin.New()
	s.engine.Use(
		middleware.Recovery(middleware.RecoveryConfig{StackTrace: true, Logger: s.logger}),
		middleware.Logger(middleware.LoggerConfig{Logger: s.logger, SkipPaths: []string{"/health", "/metrics"}}),
		middleware.Cors(middleware.CorsConfig{
			AllowOrigins:     s.config.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           3600,
		}),
	)
	if s.prom != nil {
		s.metrics = metrics.NewServer(s.prom.Registry())
		s.engine.Use(middleware.Metrics(s.metrics))
		httpOpts = append(httpOpts, transporthttp.WithMetrics(s.prom, "/metrics"))
	}
	httpOpts = append(httpOpts,
		transporthttp.WithName("mockapi"),
		transporthttp.WithLogger(s.logger),
		transporthttp.WithHealth("/health"),
	)
	s.routes()
	s.http = transporthttp.NewServer(s.config.Addr, s.engine, httpOpts...)
	return s, nil
}

// Faults 返回故障注入开关
func (s *Server) Faults() *Faults {
	return s.faults
}

// Handler 供 httptest 使用的 API 处理器
func (s *Server) Handler() http.Handler {
	return s.http.Handler()
}

func (s *Server) Run() error {
	return s.http.Run()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	return s.http.Shutdown(ctx)
}

// Authenticator 暴露 token 签发，测试可直接生成 token
func (s *Server) Authenticator() *jwt.Authenticator {
	return s.auth
}

func (s *Server) routes() {
	r := s.engine
	r.Use(s.unavailable)

	authed := middleware.Auth(middleware.AuthConfig{Validate: s.validateAccess})
	admin := middleware.RequireRoles(api.RoleAdmin, api.RoleStaff)

	a := r.Group("/auth")
	a.POST("/login", s.login)
	a.POST("/register", s.register)
	a.GET("/verify", s.verify)
	a.POST("/refresh-token", s.refresh)
	a.POST("/logout", s.logout)
	a.GET("/check-cookie", s.checkCookie)
	a.POST("/forgot-password", s.forgotPassword)
	a.POST("/resend-verification", s.resendVerification)
	a.POST("/reset-password", s.resetPassword)

	u := r.Group("/users", authed)
	u.GET("/me", s.me)
	u.PUT("/me", s.updateMe)
	u.GET("", admin, s.listUsers)
	u.GET("/customers", admin, s.listCustomers)
	u.GET("/:id/loyalty-points", s.loyaltyPoints)

	r.GET("/categories", s.listCategories)
	r.GET("/categories/:id/products", s.categoryProducts)

	p := r.Group("/products")
	p.GET("", s.listProducts)
	p.GET("/filtered", s.filteredProducts)
	p.GET("/:id", s.getProduct)
	p.GET("/:id/related", s.relatedProducts)
	p.POST("", authed, admin, s.createProduct)
	p.PUT("/:id", authed, admin, s.updateProduct)
	p.DELETE("/:id", authed, admin, s.deleteProduct)

	o := r.Group("/orders", authed)
	o.GET("", s.listOrders)
	o.GET("/paginated", s.paginatedOrders)
	o.POST("", s.createOrder)
	o.GET("/:id", s.getOrder)
	o.PUT("/:id/status", admin, s.updateOrderStatus)
	o.PUT("/:id/cancel", s.cancelOrder)
	o.DELETE("/:id", admin, s.deleteOrder)

	pay := r.Group("/payments", authed)
	pay.POST("", s.createPayment)
	pay.GET("/:id", s.getPayment)
	pay.GET("/by-transaction/:tx", s.paymentByTransaction)
	pay.GET("/url/:orderId", s.paymentURL)
	pay.PUT("/:id", admin, s.updatePayment)

	rv := r.Group("/reviews")
	rv.POST("", authed, s.addReview)
	rv.GET("/product/:id", s.productReviews)
	rv.GET("/product/:id/average", s.reviewAverage)
	rv.GET("/product/:id/count", s.reviewCount)

	inv := r.Group("/inventory", authed, admin)
	inv.GET("/summary", s.inventorySummary)
	inv.GET("/logs", s.inventoryLogs)
	inv.GET("/report", s.inventoryReport)
	inv.GET("/:id", s.getInventory)
	inv.PUT("/adjust/:id", s.adjustInventory)

	d := r.Group("/discounts")
	d.GET("/active", s.activeDiscounts)
	d.GET("", authed, admin, s.listDiscounts)
	d.POST("", authed, admin, s.createDiscount)
	d.GET("/:code", authed, s.discountByCode)
	d.PUT("/:code", authed, admin, s.updateDiscount)
	d.DELETE("/:code", authed, admin, s.deleteDiscount)
	d.POST("/spin", authed, s.spin)
	d.POST("/apply-discount", authed, s.applyDiscount)

	r.POST("/shipping/estimate", s.estimateShipping)

	rep := r.Group("/reports", authed, admin)
	rep.GET("/profit", s.profitReport)
	rep.GET("/revenue", s.revenueReport)
	rep.GET("/daily-revenue-optimized", s.revenueReport)
	rep.GET("/top-products", s.topProductsReport)
	rep.GET("/orders-by-status", s.ordersByStatusReport)
	rep.GET("/low-stock", s.lowStockReport)
	rep.GET("/revenue-by-category", s.revenueByCategoryReport)
	rep.GET("/export/:format", s.exportReport)

	adm := r.Group("/admin", authed, admin)
	adm.GET("/stats", s.stats)
	adm.GET("/recent-orders", s.recentOrders)
	adm.GET("/top-products", s.topProductsReport)
	adm.GET("/orders-by-status", s.ordersByStatusReport)
	adm.GET("/low-stock", s.lowStockReport)

	ch := r.Group("/chat", authed)
	ch.GET("/my-history", s.myHistory)
	ch.POST("/send-to-agent", s.sendToAgent)
	ch.POST("/mark-as-read", s.markAsRead)
	ch.GET("/history", admin, s.history)
	ch.GET("/users", admin, s.chatUsers)
	ch.GET("/unread-count", admin, s.unreadCount)
	ch.POST("/send-to-customer", admin, s.sendToCustomer)
	ch.POST("/mark-conversation-as-read", admin, s.markConversationAsRead)
	r.POST("/chatbot/ask", authed, s.ask)
	r.GET("/ws/chat", s.chatStream)
}

func (s *Server) unavailable(c *gin.Context) {
	if s.faults.unavailable.Load() && c.FullPath() != "/health" && c.FullPath() != "/metrics" {
		transporthttp.GinJSONE(c, errors.ServiceUnavailable("Hệ thống đang bảo trì"))
		return
	}
	c.Next()
}

// validateAccess 读取访问凭据 cookie，开启过期故障时有效 token 也按过期处理
func (s *Server) validateAccess(c *gin.Context) (*jwt.UserClaims, error) {
	token, err := c.Cookie(api.CookieAccessToken)
	if err != nil || token == "" {
		return nil, errors.Unauthorized("Chưa đăng nhập")
	}
	return s.verifyAccess(c.Request.Context(), token)
}

func (s *Server) verifyAccess(ctx context.Context, token string) (*jwt.UserClaims, error) {
	claims, err := s.auth.Verify(ctx, token, jwt.TokenAccess)
	if err != nil {
		return nil, errors.Unauthorized("Token không hợp lệ hoặc đã hết hạn").WithCause(err)
	}
	if s.faults.expireAccess.Load() {
		return nil, errors.Unauthorized("Token không hợp lệ hoặc đã hết hạn")
	}
	return claims, nil
}

// setAuthCookies mirrors the backend: HttpOnly, path /, SameSite Lax.
func (s *Server) setAuthCookies(c *gin.Context, pair *jwt.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(api.CookieAccessToken, pair.AccessToken, int(pair.AccessTTL), "/", "", false, true)
	c.SetCookie(api.CookieRefreshToken, pair.RefreshToken, int(pair.RefreshTTL), "/", "", false, true)
}

func (s *Server) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(api.CookieAccessToken, "", -1, "/", "", false, true)
	c.SetCookie(api.CookieRefreshToken, "", -1, "/", "", false, true)
}

func (s *Server) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		transporthttp.GinJSONE(c, errors.BadRequest("Dữ liệu không hợp lệ").WithCause(err))
		return false
	}
	if err := s.validator.StructCtx(c.Request.Context(), v); err != nil {
		transporthttp.GinJSONE(c, errors.BadRequest("%v", err).WithCause(err))
		return false
	}
	return true
}

func claimsOf(c *gin.Context) *jwt.UserClaims {
	claims, _ := middleware.Claims(c)
	return claims
}

func isStaff(claims *jwt.UserClaims) bool {
	return claims != nil && (claims.HasRole(api.RoleAdmin) || claims.HasRole(api.RoleStaff))
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		transporthttp.GinJSONE(c, errors.BadRequest("ID không hợp lệ"))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

func paginate[T any](items []T, page, size int) api.Page[T] {
	if size <= 0 {
		size = 10
	}
	page = max(page, 0)
	total := len(items)
	from := min(page*size, total)
	to := min(from+size, total)
	return api.Page[T]{
		Content:       items[from:to],
		TotalElements: int64(total),
		TotalPages:    (total + size - 1) / size,
		Number:        page,
		Size:          size,
	}
}
