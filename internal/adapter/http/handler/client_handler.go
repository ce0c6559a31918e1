package handler

import (
	"strconv"

	"btc-fund-manager/internal/adapter/http/dto"
	"btc-fund-manager/internal/adapter/http/middleware"
	"btc-fund-manager/internal/core/ports"
	"btc-fund-manager/pkg/apperror"
	"btc-fund-manager/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ClientHandler handles client management endpoints.
type ClientHandler struct {
	clientSvc ports.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientSvc ports.ClientService) *ClientHandler {
	return &ClientHandler{clientSvc: clientSvc}
}

// List handles GET /api/v1/clients?q=&limit=&cursor=.
func (h *ClientHandler) List(c *gin.Context) {
	params := ports.ClientListParams{Query: c.Query("q"), Limit: defaultListLimit}

	if s := c.Query("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 || limit > maxListLimit {
			response.Error(c, apperror.Validation("limit must be between 1 and 100"))
			return
		}
		params.Limit = limit
	}
	if s := c.Query("cursor"); s != "" {
		cursor, err := decodeClientCursor(s)
		if err != nil {
			response.Error(c, apperror.Validation("invalid cursor"))
			return
		}
		params.Cursor = cursor
	}

	items, err := h.clientSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	// A full page means there may be more.
	p := response.Pagination{PageSize: params.Limit}
	if n := len(items); n > 0 && n == params.Limit {
		last := items[n-1]
		next := encodeClientCursor(ports.ClientCursor{CreatedAt: last.CreatedAt, ID: last.ID})
		p.NextCursor = &next
	}
	response.Paged(c, dto.NewClientListResponse(items), p)
}

// Get handles GET /api/v1/clients/:id.
func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	client, err := h.clientSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewClientResponse(client))
}

// Create handles POST /api/v1/clients.
func (h *ClientHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	client, err := h.clientSvc.Create(c.Request.Context(), toCreateClient(req))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, client.ID.String())
	response.Created(c, dto.NewClientResponse(client))
}

// Update handles PUT /api/v1/clients/:id.
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	client, err := h.clientSvc.Update(c.Request.Context(), ports.UpdateClientRequest{
		ID:        id,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CPF:       req.CPF,
		WalletRef: req.WalletRef,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewClientResponse(client))
}

// Delete handles DELETE /api/v1/clients/:id.
func (h *ClientHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.clientSvc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me handles GET /api/v1/me.
func (h *ClientHandler) Me(c *gin.Context) {
	id, ok := principalID(c)
	if !ok {
		return
	}

	client, err := h.clientSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewClientResponse(client))
}

// pathID parses the :id route parameter, writing a 400 on failure.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// principalID returns the authenticated subject, writing a 401 when absent.
func principalID(c *gin.Context) (uuid.UUID, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	return p.Subject, true
}
