package handler

import (
	"btc-fund-manager/internal/adapter/http/dto"
	"btc-fund-manager/internal/core/ports"
	"btc-fund-manager/pkg/apperror"
	"btc-fund-manager/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BalanceHandler serves balance summaries, fund stats and the spot price.
type BalanceHandler struct {
	balanceSvc ports.BalanceService
	prices     ports.PriceSource
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceSvc ports.BalanceService, prices ports.PriceSource) *BalanceHandler {
	return &BalanceHandler{balanceSvc: balanceSvc, prices: prices}
}

// ClientBalance handles GET /api/v1/clients/:id/balance.
func (h *BalanceHandler) ClientBalance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.summary(c, id)
}

// MyBalance handles GET /api/v1/me/balance.
func (h *BalanceHandler) MyBalance(c *gin.Context) {
	id, ok := principalID(c)
	if !ok {
		return
	}
	h.summary(c, id)
}

// FundStats handles GET /api/v1/fund/stats.
func (h *BalanceHandler) FundStats(c *gin.Context) {
	stats, err := h.balanceSvc.GetFundStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewFundStatsResponse(stats))
}

// BTCPrice handles GET /api/v1/public/btc-price.
func (h *BalanceHandler) BTCPrice(c *gin.Context) {
	quote, err := h.prices.SpotPrice(c.Request.Context())
	if err != nil {
		response.Error(c, apperror.ErrPriceUnavailable(err))
		return
	}
	response.OK(c, dto.NewPriceResponse(quote))
}

func (h *BalanceHandler) summary(c *gin.Context, clientID uuid.UUID) {
	summary, err := h.balanceSvc.GetSummary(c.Request.Context(), clientID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBalanceResponse(summary))
}
