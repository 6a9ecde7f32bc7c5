package httpgin

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/service/ledger"
)

const agentCtxKey = "agent"

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Set("request_id", reqID)

		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"X-Agent-ID",
			"Idempotency-Key",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"ETag",
			"Cache-Control",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	return cors.New(cfg)
}

// AgentMiddleware resolves the calling agent from the X-Agent-ID
// header set by the upstream auth gateway. Requests without the header
// pass through with no agent in context; handlers that need one reject
// with 401 via currentAgent.
func AgentMiddleware(ledgerSvc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Agent-ID")
		if raw == "" {
			c.Next()
			return
		}

		agentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    codeUnauthorized,
				Status:  "error",
				Message: "invalid X-Agent-ID",
			})
			return
		}

		agent, err := ledgerSvc.Agent(c.Request.Context(), agentID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    codeUnauthorized,
				Status:  "error",
				Message: "unknown agent",
			})
			return
		}

		if agent.Status == domain.AgentBlocked {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Code:    codeForbidden,
				Status:  "error",
				Message: "agent is blocked",
			})
			return
		}

		c.Set(agentCtxKey, agent)
		c.Next()
	}
}

// currentAgent pulls the agent placed in context by AgentMiddleware.
// Writes a 401 and returns false when there is none.
func currentAgent(c *gin.Context) (*domain.Agent, bool) {
	v, ok := c.Get(agentCtxKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    codeUnauthorized,
			Status:  "error",
			Message: "agent authentication required",
		})
		return nil, false
	}

	agent, ok := v.(*domain.Agent)
	if !ok || agent == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    codeUnauthorized,
			Status:  "error",
			Message: "agent authentication required",
		})
		return nil, false
	}

	return agent, true
}

func requireAdmin(c *gin.Context) (*domain.Agent, bool) {
	agent, ok := currentAgent(c)
	if !ok {
		return nil, false
	}
	if !agent.IsAdmin() {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Code:    codeForbidden,
			Status:  "error",
			Message: "admin role required",
		})
		return nil, false
	}
	return agent, true
}

func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		status := c.Writer.Status()
		reqID, _ := c.Get("request_id")

		attrs := []slog.Attr{
			slog.Int("status", status),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("ip", c.ClientIP()),
			slog.String("ua", c.Request.UserAgent()),
			slog.Any("request_id", reqID),
			slog.Duration("latency", latency),
			slog.Int("bytes_out", c.Writer.Size()),
		}

		// convert []slog.Attr to []any for slog.Group variadic parameter
		anyAttrs := make([]any, len(attrs))
		for i := range attrs {
			anyAttrs[i] = attrs[i]
		}

		if len(c.Errors) > 0 {
			logger.Error("http", slog.Group("http", anyAttrs...))
		} else {
			logger.Info("http", slog.Group("http", anyAttrs...))
		}
	}
}
