package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// Actions are resolved from the matched route, not the raw path.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		route := c.FullPath()
		action, resourceType := mapRouteToAction(route, c.Request.Method)
		if action == "" {
			return
		}

		entry := &domain.AuditLog{
			ID:           uuid.New(),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID(c),
			IPAddress:    c.ClientIP(),
			CreatedAt:    time.Now().UTC(),
		}
		if p, ok := PrincipalFrom(c); ok {
			subject := p.Subject
			entry.ActorID = &subject
			entry.ActorRole = p.Role
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"route":  route,
			"status": c.Writer.Status(),
		})
		entry.Details = string(details)

		auditSvc.Log(c.Request.Context(), entry)
	}
}

// resourceID prefers an id set by the handler (for creations) over the
// :id route parameter.
func resourceID(c *gin.Context) string {
	if id := c.GetString(CtxResourceID); id != "" {
		return id
	}
	return c.Param("id")
}

func mapRouteToAction(route, method string) (domain.AuditAction, string) {
	switch {
	case route == "/api/v1/auth/admin/login" && method == http.MethodPost:
		return domain.AuditActionLogin, "session"
	case route == "/api/v1/auth/login" && method == http.MethodPost:
		return domain.AuditActionLogin, "session"
	case route == "/api/v1/auth/signup" && method == http.MethodPost:
		return domain.AuditActionSignup, "client"
	case route == "/api/v1/clients" && method == http.MethodPost:
		return domain.AuditActionClientCreate, "client"
	case route == "/api/v1/clients/:id" && method == http.MethodPut:
		return domain.AuditActionClientUpdate, "client"
	case route == "/api/v1/clients/:id" && method == http.MethodDelete:
		return domain.AuditActionClientDelete, "client"
	case route == "/api/v1/clients/:id/transactions" && method == http.MethodPost:
		return domain.AuditActionTransaction, "transaction"
	case route == "/api/v1/me/transactions" && method == http.MethodPost:
		return domain.AuditActionTransaction, "transaction"
	}
	return "", ""
}
