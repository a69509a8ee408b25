package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"auto-topup-go/internal/qr"
	"auto-topup-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type topupRequest struct {
	UserId    string `json:"userId" binding:"required"`
	AmountVnd int64  `json:"amountVnd" binding:"required"`
	Note      string `json:"note"`
}

type topupResponse struct {
	DepositId       int64  `json:"depositId"`
	TransferContent string `json:"transferContent"`
	QrCode          string `json:"qrCode"`
	BankName        string `json:"bankName"`
	BankAccount     string `json:"bankAccount"`
	AccountHolder   string `json:"accountHolder"`
	AmountVnd       int64  `json:"amountVnd"`
}

// handleTopup creates a pending deposit request with a fresh correlation
// token and QR payload. The rate guard runs before any validation so abusive
// callers cannot probe the bounds for free.
func (s *Server) handleTopup(c *gin.Context) {
	var req topupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and amountVnd are required"})
		return
	}

	decision := s.guard.Allow(req.UserId)
	if !decision.Allowed {
		c.Header("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "too many topup requests, slow down",
		})
		return
	}

	topup := s.cfg.Topup
	if req.AmountVnd < topup.MinVnd || req.AmountVnd > topup.MaxVnd {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("amount must be between %d and %d VND", topup.MinVnd, topup.MaxVnd),
		})
		return
	}

	transferContent := qr.NewTransferContent()
	qrCode := qr.VietQRURL(topup.BankName, topup.BankAccount, topup.AccountHolder, req.AmountVnd, transferContent)

	deposit, err := s.store.CreateDepositRequest(c.Request.Context(), store.CreateDepositParams{
		UserId:          req.UserId,
		AmountVnd:       req.AmountVnd,
		TransferContent: transferContent,
		QrCode:          qrCode,
		Note:            req.Note,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateToken) {
			// Token collision is possible but vanishingly rare; the caller
			// can simply retry for a fresh token.
			c.JSON(http.StatusConflict, gin.H{"error": "token collision, please retry"})
			return
		}
		zap.L().Error("Failed to create deposit request",
			zap.String("userId", req.UserId),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create deposit request"})
		return
	}

	c.JSON(http.StatusCreated, topupResponse{
		DepositId:       deposit.Id,
		TransferContent: deposit.TransferContent,
		QrCode:          deposit.QrCode,
		BankName:        topup.BankName,
		BankAccount:     topup.BankAccount,
		AccountHolder:   topup.AccountHolder,
		AmountVnd:       deposit.AmountVnd,
	})
}

func (s *Server) handleWalletBalance(c *gin.Context) {
	userId := c.Query("userId")
	if userId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	balance, err := s.store.GetWalletBalance(c.Request.Context(), userId)
	if err != nil {
		zap.L().Error("Failed to get wallet balance",
			zap.String("userId", userId),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get wallet balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userId, "balanceVnd": balance})
}

func (s *Server) handleWalletHistory(c *gin.Context) {
	userId := c.Query("userId")
	if userId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	history, err := s.store.WalletHistory(c.Request.Context(), userId, limit)
	if err != nil {
		zap.L().Error("Failed to get wallet history",
			zap.String("userId", userId),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get wallet history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userId, "transactions": history})
}
