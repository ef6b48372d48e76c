package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
	"github.com/joseph-ayodele/receipts-extractor/internal/receipts"
)

// maxUpload bounds a single uploaded receipt.
const maxUpload = 20 << 20

// Receipts is the application surface served over HTTP and gRPC.
type Receipts interface {
	Extract(ctx context.Context, fileName string, image []byte, lang string) (*receipts.Outcome, error)
	Submit(ctx context.Context, fileName string, image []byte, lang string) (*entity.Job, error)
	Job(ctx context.Context, id string) (*entity.Job, error)
	Receipt(ctx context.Context, id string) (*entity.StoredReceipt, error)
	ListReceipts(ctx context.Context, limit int) ([]*entity.StoredReceipt, error)
	Parse(lines []string) entity.Receipt
	ExportXLSX(ctx context.Context) ([]byte, error)
}

// HealthFunc reports whether backing stores are reachable.
type HealthFunc func(ctx context.Context) error

type API struct {
	svc    Receipts
	health HealthFunc
	logger *slog.Logger
}

// NewRouter builds the gin engine serving /api/v1.
func NewRouter(svc Receipts, health HealthFunc, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	a := &API{svc: svc, health: health, logger: logger}

	r := gin.New()
	r.MaxMultipartMemory = maxUpload
	r.Use(gin.Recovery(), requestID(), accessLog(logger))

	v1 := r.Group("/api/v1")
	v1.GET("/health", a.getHealth)
	v1.POST("/receipts", a.submitReceipt)
	v1.GET("/receipts", a.listReceipts)
	v1.GET("/receipts/:id", a.getReceipt)
	v1.GET("/jobs/:id", a.getJob)
	v1.POST("/extract", a.extract)
	v1.POST("/parse", a.parse)
	v1.GET("/export.xlsx", a.exportXLSX)
	return r
}

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.GetHeader(requestIDHeader); id != "" {
			ctx = common.WithRequestID(ctx, id)
		}
		ctx, id := common.EnsureRequestID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http.request",
			"req_id", common.RequestIDFromContext(c.Request.Context()),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (a *API) getHealth(c *gin.Context) {
	if a.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := a.health(ctx); err != nil {
			a.logger.Error("health.check.failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
