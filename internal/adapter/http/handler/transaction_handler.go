package handler

import (
	"strconv"
	"time"

	"btc-fund-manager/internal/adapter/http/dto"
	"btc-fund-manager/internal/adapter/http/middleware"
	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"
	"btc-fund-manager/pkg/apperror"
	"btc-fund-manager/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles ledger endpoints for admins and clients.
type TransactionHandler struct {
	txSvc ports.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txSvc ports.TransactionService) *TransactionHandler {
	return &TransactionHandler{txSvc: txSvc}
}

// List handles GET /api/v1/clients/:id/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.list(c, id)
}

// ListMine handles GET /api/v1/me/transactions.
func (h *TransactionHandler) ListMine(c *gin.Context) {
	id, ok := principalID(c)
	if !ok {
		return
	}
	h.list(c, id)
}

// Record handles POST /api/v1/clients/:id/transactions.
func (h *TransactionHandler) Record(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	btc, err := dto.ParseDecimal(req.BTCAmount)
	if err != nil {
		response.Error(c, apperror.Validation("invalid btc_amount"))
		return
	}
	price, err := dto.ParseDecimal(req.Price)
	if err != nil {
		response.Error(c, apperror.Validation("invalid price"))
		return
	}

	h.record(c, ports.RecordTransactionRequest{
		ClientID:    id,
		Kind:        domain.TransactionKind(req.Kind),
		AmountCents: req.AmountCents,
		BTCAmount:   btc,
		Price:       price,
		OccurredAt:  req.OccurredAt,
		Note:        req.Note,
	})
}

// RecordMine handles POST /api/v1/me/transactions. Self-service entries
// always use the live price and the current time.
func (h *TransactionHandler) RecordMine(c *gin.Context) {
	id, ok := principalID(c)
	if !ok {
		return
	}

	var req dto.SelfTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	btc, err := dto.ParseDecimal(req.BTCAmount)
	if err != nil {
		response.Error(c, apperror.Validation("invalid btc_amount"))
		return
	}

	h.record(c, ports.RecordTransactionRequest{
		ClientID:    id,
		Kind:        domain.TransactionKind(req.Kind),
		AmountCents: req.AmountCents,
		BTCAmount:   btc,
		Note:        req.Note,
	})
}

func (h *TransactionHandler) record(c *gin.Context, req ports.RecordTransactionRequest) {
	txn, err := h.txSvc.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, txn.ID.String())
	response.Created(c, dto.NewTransactionResponse(txn))
}

func (h *TransactionHandler) list(c *gin.Context, clientID uuid.UUID) {
	params := ports.TransactionListParams{ClientID: clientID}

	page, err := queryInt(c, "page", 1)
	if err != nil {
		response.Error(c, err)
		return
	}
	pageSize, err := queryInt(c, "page_size", defaultListLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	params.Page, params.PageSize = page, pageSize

	if k := c.Query("kind"); k != "" {
		kind := domain.TransactionKind(k)
		if !kind.Valid() {
			response.Error(c, apperror.Validation("kind must be DEPOSIT or WITHDRAWAL"))
			return
		}
		params.Kind = &kind
	}
	if params.From, err = queryTime(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if params.To, err = queryTime(c, "to"); err != nil {
		response.Error(c, err)
		return
	}

	txns, total, err := h.txSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paged(c, dto.NewTransactionListResponse(txns), response.Pagination{
		Page:     params.Page,
		PageSize: params.PageSize,
		Total:    total,
	})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, apperror.Validation(key + " must be a positive integer")
	}
	return v, nil
}

// queryTime parses an RFC 3339 timestamp or a plain date.
func queryTime(c *gin.Context, key string) (*time.Time, error) {
	s := c.Query(key)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, apperror.Validation(key + " must be RFC 3339 or YYYY-MM-DD")
	}
	return &t, nil
}
