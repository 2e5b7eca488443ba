package router

import (
	"net/http"
	"strings"

	"oncult-backend/internal/config"
	"oncult-backend/internal/handlers"
	"oncult-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// corsMiddleware applies the configured origin whitelist. An empty
// whitelist allows every origin.
func corsMiddleware() gin.HandlerFunc {
	var allowedOrigins []string
	allowCredentials := false
	if config.AppConfig != nil {
		allowedOrigins = config.AppConfig.CORS.AllowedOrigins
		allowCredentials = config.AppConfig.CORS.AllowCredentials
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			allowed := len(allowedOrigins) == 0
			for _, o := range allowedOrigins {
				if strings.EqualFold(o, origin) {
					allowed = true
					break
				}
			}
			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
			} else {
				logrus.WithField("origin", origin).Warn("CORS: origin not in whitelist")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
			c.Header("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Handlers bundles everything SetupRouter mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	AdminAuth *handlers.AdminAuthHandler
	Payment   *handlers.PaymentHandler
	Item      *handlers.ItemHandler
	Purchase  *handlers.PurchaseHandler
	WS        *handlers.WebSocketHandler
}

// SetupRouter wires all routes and middleware.
func SetupRouter(gdb *gorm.DB, natsConn *nats.Conn, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	logger := logrus.StandardLogger()
	auth := middleware.NewAuthMiddleware(logger)
	adminAuth := middleware.NewAdminAuthMiddleware(logger)
	localhost := middleware.NewLocalhostOnly(logger, nil)

	r.GET("/health", handlers.HealthCheckHandler)
	r.GET("/ready", handlers.ReadinessHandler(gdb, natsConn))
	r.GET("/metrics", localhost.Restrict(), gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/auth/login", h.Auth.AuthenticateHandler)
		api.GET("/auth/nonce", h.Auth.GenerateNonceHandler)
		api.POST("/admin/login", h.AdminAuth.AdminLoginHandler)

		api.GET("/items", h.Item.ListItemsHandler)
		api.GET("/items/:id", h.Item.GetItemHandler)
		api.POST("/items", auth.RequireAuth(), h.Item.CreateItemHandler)
		api.DELETE("/items/:id", auth.RequireAuth(), h.Item.DeleteItemHandler)

		api.POST("/payments/gateway", auth.RequireAuth(), h.Payment.GatewayPaymentHandler)
		api.POST("/payments/native", auth.RequireAuth(), h.Payment.NativePaymentHandler)
		api.GET("/payments/ws", auth.RequireAuth(), h.WS.ProgressStreamHandler)

		api.GET("/purchases", auth.RequireAuth(), h.Purchase.ListMyPurchasesHandler)

		admin := api.Group("/admin", adminAuth.RequireAdminAuth())
		{
			admin.GET("/purchases", h.Purchase.ListAllPurchasesHandler)
		}
	}

	return r
}
