package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"auto-topup-go/internal/models"
	"auto-topup-go/internal/scheduler"
	"auto-topup-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// adminAuth guards the admin surface with a static bearer token. When no
// token is configured the whole surface is disabled rather than left open.
func (s *Server) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.cfg.Server.AdminToken
		if token == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin API is not configured"})
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}
		presented := strings.TrimPrefix(header, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Next()
	}
}

// handleReconcile triggers one reconciliation cycle immediately. A cycle
// already in flight is refused, not queued.
func (s *Server) handleReconcile(c *gin.Context) {
	summary, err := s.scheduler.TriggerNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrCycleRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "a reconciliation cycle is already running"})
			return
		}
		zap.L().Error("Manual reconciliation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (s *Server) handleListBankConfigs(c *gin.Context) {
	configs, err := s.store.ListBankConfigs(c.Request.Context())
	if err != nil {
		zap.L().Error("Failed to list bank configs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bank configs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bankConfigs": configs})
}

func (s *Server) handleSaveBankConfigs(c *gin.Context) {
	var configs []models.BankConfig
	if err := c.ShouldBindJSON(&configs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be an array of bank configs"})
		return
	}

	if err := s.store.SaveBankConfigs(c.Request.Context(), configs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	zap.L().Info("Bank configs replaced", zap.Int("count", len(configs)))
	c.JSON(http.StatusOK, gin.H{"saved": len(configs)})
}

func (s *Server) handleListBonusTiers(c *gin.Context) {
	tiers, err := s.store.BonusTiers(c.Request.Context())
	if err != nil {
		zap.L().Error("Failed to list bonus tiers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bonus tiers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bonusTiers": tiers})
}

func (s *Server) handleSaveBonusTiers(c *gin.Context) {
	var tiers []models.BonusTier
	if err := c.ShouldBindJSON(&tiers); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be an array of bonus tiers"})
		return
	}

	if err := s.store.SaveBonusTiers(c.Request.Context(), tiers); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	zap.L().Info("Bonus tiers replaced", zap.Int("count", len(tiers)))
	c.JSON(http.StatusOK, gin.H{"saved": len(tiers)})
}

func (s *Server) handleListDeposits(c *gin.Context) {
	deposits, err := s.store.PendingDepositRequests(c.Request.Context())
	if err != nil {
		zap.L().Error("Failed to list pending deposits", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list deposits"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": deposits})
}

type decideDepositRequest struct {
	AdminNote string `json:"adminNote"`
}

func (s *Server) handleApproveDeposit(c *gin.Context) {
	s.decideDeposit(c, models.DepositApproved)
}

func (s *Server) handleRejectDeposit(c *gin.Context) {
	s.decideDeposit(c, models.DepositRejected)
}

func (s *Server) decideDeposit(c *gin.Context, status models.DepositStatus) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deposit id"})
		return
	}

	var req decideDepositRequest
	_ = c.ShouldBindJSON(&req)

	// Manual approvals credit the face amount only. Bonus pricing is the
	// automatic path's business; an admin override is a correction, not a
	// promotion.
	creditVnd := int64(0)
	if status == models.DepositApproved {
		deposit, err := s.store.GetDepositRequest(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "deposit not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load deposit"})
			return
		}
		creditVnd = deposit.AmountVnd
	}

	deposit, err := s.store.DecideDepositRequest(c.Request.Context(), id, status, req.AdminNote, creditVnd)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "deposit not found"})
		case errors.Is(err, store.ErrDepositNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "deposit already decided"})
		default:
			zap.L().Error("Failed to decide deposit",
				zap.Int64("depositId", id),
				zap.String("status", string(status)),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decide deposit"})
		}
		return
	}

	zap.L().Info("Deposit decided manually",
		zap.Int64("depositId", id),
		zap.String("status", string(status)))
	c.JSON(http.StatusOK, deposit)
}

func (s *Server) handleListWallets(c *gin.Context) {
	wallets, err := s.store.ListWallets(c.Request.Context())
	if err != nil {
		zap.L().Error("Failed to list wallets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list wallets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

type adjustWalletRequest struct {
	UserId      string `json:"userId" binding:"required"`
	DeltaVnd    int64  `json:"deltaVnd" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) handleAdjustWallet(c *gin.Context) {
	var req adjustWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and a non-zero deltaVnd are required"})
		return
	}

	balance, err := s.store.AdjustWallet(c.Request.Context(), req.UserId, req.DeltaVnd, req.Description)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			c.JSON(http.StatusConflict, gin.H{"error": "adjustment would make the balance negative"})
			return
		}
		zap.L().Error("Failed to adjust wallet",
			zap.String("userId", req.UserId),
			zap.Int64("deltaVnd", req.DeltaVnd),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to adjust wallet"})
		return
	}

	zap.L().Info("Wallet adjusted manually",
		zap.String("userId", req.UserId),
		zap.Int64("deltaVnd", req.DeltaVnd))
	c.JSON(http.StatusOK, gin.H{"userId": req.UserId, "balanceVnd": balance})
}

func (s *Server) handleTopupLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := s.store.TopupLogs(c.Request.Context(), limit)
	if err != nil {
		zap.L().Error("Failed to list topup logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list topup logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

type rateLimitResetRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleRateLimitReset(c *gin.Context) {
	var req rateLimitResetRequest
	_ = c.ShouldBindJSON(&req)

	if req.Key == "" {
		s.guard.ResetAll()
		zap.L().Info("Rate limits reset for all keys")
	} else {
		s.guard.Reset(req.Key)
		zap.L().Info("Rate limit reset", zap.String("key", req.Key))
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (s *Server) handleSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scheduler": s.scheduler.Status(),
		"lastCycle": s.engine.LastSummary(),
	})
}

// The lifecycle handlers are idempotent: starting a running scheduler and
// stopping an idle one are no-ops, and the response is always the resulting
// status.
func (s *Server) handleSchedulerStart(c *gin.Context) {
	// The loop must outlive this request, so it gets a background context.
	// Shutdown stops it through Stop, not through cancellation.
	s.scheduler.Start(context.Background())
	c.JSON(http.StatusOK, s.scheduler.Status())
}

func (s *Server) handleSchedulerStop(c *gin.Context) {
	s.scheduler.Stop()
	c.JSON(http.StatusOK, s.scheduler.Status())
}

func (s *Server) handleSchedulerRestart(c *gin.Context) {
	s.scheduler.Restart(context.Background())
	c.JSON(http.StatusOK, s.scheduler.Status())
}
