package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"
	"btc-fund-manager/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

type routerMocks struct {
	auth    *mocks.MockAuthService
	clients *mocks.MockClientService
	txns    *mocks.MockTransactionService
	balance *mocks.MockBalanceService
	prices  *mocks.MockPriceSource
	tokens  *mocks.MockTokenService
}

func newTestRouter(t *testing.T) (routerMocks, http.Handler) {
	ctrl := gomock.NewController(t)
	m := routerMocks{
		auth:    mocks.NewMockAuthService(ctrl),
		clients: mocks.NewMockClientService(ctrl),
		txns:    mocks.NewMockTransactionService(ctrl),
		balance: mocks.NewMockBalanceService(ctrl),
		prices:  mocks.NewMockPriceSource(ctrl),
		tokens:  mocks.NewMockTokenService(ctrl),
	}
	m.tokens.EXPECT().Validate("admin-token").Return(&ports.TokenClaims{Subject: uuid.New(), Role: domain.RoleAdmin}, nil).AnyTimes()
	m.tokens.EXPECT().Validate("client-token").Return(&ports.TokenClaims{Subject: uuid.New(), Role: domain.RoleClient}, nil).AnyTimes()

	r := SetupRouter(RouterDeps{
		AuthSvc:        m.auth,
		ClientSvc:      m.clients,
		TransactionSvc: m.txns,
		BalanceSvc:     m.balance,
		PriceSource:    m.prices,
		TokenSvc:       m.tokens,
		Logger:         zerolog.Nop(),
	})
	return m, r
}

func serve(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_RoleGates(t *testing.T) {
	_, r := newTestRouter(t)
	clientPath := "/api/v1/clients/" + uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"clients without token", http.MethodGet, "/api/v1/clients", "", http.StatusUnauthorized},
		{"clients as client", http.MethodGet, "/api/v1/clients", "client-token", http.StatusForbidden},
		{"client delete as client", http.MethodDelete, clientPath, "client-token", http.StatusForbidden},
		{"fund stats as client", http.MethodGet, "/api/v1/fund/stats", "client-token", http.StatusForbidden},
		{"me as admin", http.MethodGet, "/api/v1/me/balance", "admin-token", http.StatusForbidden},
		{"me without token", http.MethodGet, "/api/v1/me", "", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/api/v1/nope", "admin-token", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.method, tt.path, tt.token)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRouter_AdminReachesFundStats(t *testing.T) {
	m, r := newTestRouter(t)
	m.balance.EXPECT().GetFundStats(gomock.Any()).Return(&ports.FundStats{NetBTC: decimal.Zero}, nil)

	w := serve(r, http.MethodGet, "/api/v1/fund/stats", "admin-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_PublicPriceNeedsNoToken(t *testing.T) {
	m, r := newTestRouter(t)
	m.prices.EXPECT().SpotPrice(gomock.Any()).Return(&domain.PriceQuote{
		Price:     decimal.RequireFromString("500000"),
		Currency:  "brl",
		FetchedAt: time.Now(),
	}, nil)

	w := serve(r, http.MethodGet, "/api/v1/public/btc-price", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Health(t *testing.T) {
	_, r := newTestRouter(t)

	w := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
