package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"auto-topup-go/internal/models"
	"auto-topup-go/internal/rateguard"
	"auto-topup-go/internal/reconciler"
	"auto-topup-go/internal/scheduler"
	"auto-topup-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server exposes the storefront wallet API and the admin surface over HTTP.
type Server struct {
	store     store.Store
	guard     *rateguard.Guard
	scheduler *scheduler.Scheduler
	engine    *reconciler.Engine
	cfg       *models.Config

	http *http.Server
}

func NewServer(st store.Store, guard *rateguard.Guard, sched *scheduler.Scheduler, engine *reconciler.Engine, cfg *models.Config) *Server {
	return &Server{
		store:     st,
		guard:     guard,
		scheduler: sched,
		engine:    engine,
		cfg:       cfg,
	}
}

// Router builds the gin engine with all routes registered. Exposed
// separately from Run so tests can drive it with httptest.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		wallet := api.Group("/wallet")
		wallet.POST("/topup", s.handleTopup)
		wallet.GET("/balance", s.handleWalletBalance)
		wallet.GET("/history", s.handleWalletHistory)

		admin := api.Group("/admin", s.adminAuth())
		admin.POST("/reconcile", s.handleReconcile)
		admin.GET("/bank-configs", s.handleListBankConfigs)
		admin.PUT("/bank-configs", s.handleSaveBankConfigs)
		admin.GET("/bonus-tiers", s.handleListBonusTiers)
		admin.PUT("/bonus-tiers", s.handleSaveBonusTiers)
		admin.GET("/deposits", s.handleListDeposits)
		admin.POST("/deposits/:id/approve", s.handleApproveDeposit)
		admin.POST("/deposits/:id/reject", s.handleRejectDeposit)
		admin.GET("/wallets", s.handleListWallets)
		admin.POST("/wallets/adjust", s.handleAdjustWallet)
		admin.GET("/topup-logs", s.handleTopupLogs)
		admin.POST("/rate-limit/reset", s.handleRateLimitReset)
		admin.GET("/scheduler", s.handleSchedulerStatus)
		admin.POST("/scheduler/start", s.handleSchedulerStart)
		admin.POST("/scheduler/stop", s.handleSchedulerStop)
		admin.POST("/scheduler/restart", s.handleSchedulerRestart)
	}

	return router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	zap.L().Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"scheduler": s.scheduler.Status(),
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zap.L().Debug("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
