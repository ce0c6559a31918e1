package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"btc-fund-manager/internal/adapter/http/dto"
	"btc-fund-manager/internal/adapter/http/middleware"
	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"
	"btc-fund-manager/internal/core/ports/mocks"
	"btc-fund-manager/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jsonContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	var buf []byte
	switch b := body.(type) {
	case nil:
	case string:
		buf = []byte(b)
	default:
		buf, _ = json.Marshal(b)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(buf))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "missing data envelope: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code, _ := resp["error_code"].(string)
	return code
}

func asClient(c *gin.Context, id uuid.UUID) {
	c.Set(middleware.CtxPrincipal, middleware.Principal{Subject: id, Role: domain.RoleClient})
}

// --- Auth Handler Tests ---

func TestAdminLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(24 * time.Hour)
	mockAuth.EXPECT().AdminLogin(gomock.Any(), "admin", "s3cret<&>").Return("jwt-token-123", expiry, nil)

	c, w := jsonContext(http.MethodPost, "/", dto.AdminLoginRequest{Username: " admin ", Password: "s3cret<&>"})
	h.AdminLogin(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "jwt-token-123", data["token"])
	assert.Equal(t, "ADMIN", data["role"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestAdminLogin_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	c, w := jsonContext(http.MethodPost, "/", "{}")
	h.AdminLogin(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "REQ_001", errorCode(t, w))
}

func TestClientLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().ClientLogin(gomock.Any(), "ana@example.com", "wrong").
		Return("", time.Time{}, apperror.ErrInvalidCredentials())

	c, w := jsonContext(http.MethodPost, "/", dto.ClientLoginRequest{Email: "ana@example.com", Password: "wrong"})
	h.ClientLogin(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_001", errorCode(t, w))
}

func TestClientLogin_InvalidEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	c, w := jsonContext(http.MethodPost, "/", dto.ClientLoginRequest{Email: "not-an-email", Password: "x"})
	h.ClientLogin(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignup_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	client := &domain.Client{ID: uuid.New(), Name: "Ana", Email: "ana@example.com"}
	mockAuth.EXPECT().Signup(gomock.Any(), ports.CreateClientRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "segredo",
	}).Return(client, "tok", time.Now(), nil)

	c, w := jsonContext(http.MethodPost, "/", dto.CreateClientRequest{Name: "Ana", Email: "ana@example.com", Password: "segredo"})
	h.Signup(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "tok", data["token"])
	assert.Equal(t, client.ID.String(), data["client"].(map[string]interface{})["id"])
	assert.Equal(t, client.ID.String(), c.GetString(middleware.CtxResourceID))
}

func TestSignup_ShortPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	c, w := jsonContext(http.MethodPost, "/", dto.CreateClientRequest{Name: "Ana", Email: "ana@example.com", Password: "123"})
	h.Signup(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Client Handler Tests ---

func TestClientList_NextCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClients := mocks.NewMockClientService(ctrl)
	h := NewClientHandler(mockClients)

	last := ports.ClientCursor{CreatedAt: time.Date(2026, 2, 1, 9, 30, 0, 123456000, time.UTC), ID: uuid.New()}
	items := []ports.ClientListItem{
		{Client: domain.Client{ID: uuid.New(), Name: "A", CreatedAt: last.CreatedAt.Add(time.Hour)}, TransactionCount: 1},
		{Client: domain.Client{ID: last.ID, Name: "B", CreatedAt: last.CreatedAt}, TransactionCount: 0},
	}
	mockClients.EXPECT().List(gomock.Any(), ports.ClientListParams{Query: "maria", Limit: 2}).Return(items, nil)

	c, w := jsonContext(http.MethodGet, "/api/v1/clients?q=maria&limit=2", nil)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data       []dto.ClientResponse `json:"data"`
		Pagination struct {
			NextCursor *string `json:"next_cursor"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(1), *resp.Data[0].TransactionCount)
	require.NotNil(t, resp.Pagination.NextCursor)

	decoded, err := decodeClientCursor(*resp.Pagination.NextCursor)
	require.NoError(t, err)
	assert.True(t, last.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, last.ID, decoded.ID)
}

func TestClientList_ForwardsCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClients := mocks.NewMockClientService(ctrl)
	h := NewClientHandler(mockClients)

	cur := ports.ClientCursor{CreatedAt: time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC), ID: uuid.New()}
	mockClients.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.ClientListParams) ([]ports.ClientListItem, error) {
			require.NotNil(t, params.Cursor)
			assert.True(t, cur.CreatedAt.Equal(params.Cursor.CreatedAt))
			assert.Equal(t, cur.ID, params.Cursor.ID)
			return nil, nil
		})

	c, w := jsonContext(http.MethodGet, "/api/v1/clients?cursor="+encodeClientCursor(cur), nil)
	h.List(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientList_BadParams(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewClientHandler(mocks.NewMockClientService(ctrl))

	for _, target := range []string{"/?limit=0", "/?limit=101", "/?limit=x", "/?cursor=nope", "/?cursor=" + uuid.NewString()} {
		c, w := jsonContext(http.MethodGet, target, nil)
		h.List(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestClientGet_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewClientHandler(mocks.NewMockClientService(ctrl))

	c, w := jsonContext(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientUpdate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClients := mocks.NewMockClientService(ctrl)
	h := NewClientHandler(mockClients)

	id := uuid.New()
	mockClients.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.UpdateClientRequest) (*domain.Client, error) {
			assert.Equal(t, id, req.ID)
			require.NotNil(t, req.Name)
			assert.Equal(t, "New Name", *req.Name)
			assert.Nil(t, req.Email)
			return &domain.Client{ID: id, Name: *req.Name}, nil
		},
	)

	c, w := jsonContext(http.MethodPut, "/", map[string]string{"name": "New Name"})
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.Update(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "New Name", decodeData(t, w)["name"])
}

func TestClientDelete_HasTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClients := mocks.NewMockClientService(ctrl)
	h := NewClientHandler(mockClients)

	id := uuid.New()
	mockClients.EXPECT().Delete(gomock.Any(), id).Return(apperror.ErrClientHasTransactions())

	c, w := jsonContext(http.MethodDelete, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.Delete(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "TXN_004", errorCode(t, w))
}

func TestClientMe(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClients := mocks.NewMockClientService(ctrl)
	h := NewClientHandler(mockClients)

	id := uuid.New()
	mockClients.EXPECT().Get(gomock.Any(), id).Return(&domain.Client{ID: id, Email: "me@example.com", PasswordHash: "secret-hash"}, nil)

	c, w := jsonContext(http.MethodGet, "/", nil)
	asClient(c, id)
	h.Me(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-hash")
	assert.Equal(t, "me@example.com", decodeData(t, w)["email"])
}

func TestClientMe_NoPrincipal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewClientHandler(mocks.NewMockClientService(ctrl))

	c, w := jsonContext(http.MethodGet, "/", nil)
	h.Me(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Transaction Handler Tests ---

func TestRecordTransaction_ManualPrice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTx := mocks.NewMockTransactionService(ctrl)
	h := NewTransactionHandler(mockTx)

	clientID := uuid.New()
	txn, err := domain.NewTransactionFromBTC(clientID, domain.TransactionKindDeposit,
		decimal.RequireFromString("0.01"), decimal.RequireFromString("350000"), time.Time{})
	require.NoError(t, err)

	mockTx.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.RecordTransactionRequest) (*domain.Transaction, error) {
			assert.Equal(t, clientID, req.ClientID)
			assert.Equal(t, domain.TransactionKindDeposit, req.Kind)
			assert.Nil(t, req.AmountCents)
			require.NotNil(t, req.BTCAmount)
			assert.Equal(t, "0.01", req.BTCAmount.String())
			require.NotNil(t, req.Price)
			assert.Equal(t, "350000", req.Price.String())
			return txn, nil
		},
	)

	c, w := jsonContext(http.MethodPost, "/", map[string]string{
		"kind":       "DEPOSIT",
		"btc_amount": "0.01",
		"price":      "350000",
	})
	c.Params = gin.Params{{Key: "id", Value: clientID.String()}}
	h.Record(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "0.01000000", data["btc_amount"])
	assert.Equal(t, "350000.00", data["price_at_time"])
	assert.Equal(t, float64(350000), data["amount"].(map[string]interface{})["cents"])
	assert.Equal(t, txn.ID.String(), c.GetString(middleware.CtxResourceID))
}

func TestRecordTransaction_InvalidKind(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewTransactionHandler(mocks.NewMockTransactionService(ctrl))

	c, w := jsonContext(http.MethodPost, "/", map[string]interface{}{"kind": "TRANSFER", "amount_cents": 100})
	c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}
	h.Record(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordMine_InsufficientBTC(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTx := mocks.NewMockTransactionService(ctrl)
	h := NewTransactionHandler(mockTx)

	clientID := uuid.New()
	mockTx.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.RecordTransactionRequest) (*domain.Transaction, error) {
			assert.Equal(t, clientID, req.ClientID)
			assert.Nil(t, req.Price, "self-service always uses the live price")
			assert.Nil(t, req.OccurredAt)
			return nil, apperror.ErrInsufficientBTC()
		},
	)

	c, w := jsonContext(http.MethodPost, "/", map[string]interface{}{"kind": "WITHDRAWAL", "amount_cents": 5000})
	asClient(c, clientID)
	h.RecordMine(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "TXN_003", errorCode(t, w))
}

func TestListTransactions_Filters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTx := mocks.NewMockTransactionService(ctrl)
	h := NewTransactionHandler(mockTx)

	clientID := uuid.New()
	mockTx.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, p ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, clientID, p.ClientID)
			assert.Equal(t, 2, p.Page)
			assert.Equal(t, 10, p.PageSize)
			require.NotNil(t, p.Kind)
			assert.Equal(t, domain.TransactionKindWithdrawal, *p.Kind)
			require.NotNil(t, p.From)
			assert.Equal(t, 2025, p.From.Year())
			assert.Nil(t, p.To)
			return []domain.Transaction{}, 15, nil
		},
	)

	c, w := jsonContext(http.MethodGet, "/?page=2&page_size=10&kind=WITHDRAWAL&from=2025-01-01", nil)
	c.Params = gin.Params{{Key: "id", Value: clientID.String()}}
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(15), resp["pagination"].(map[string]interface{})["total"])
	assert.Empty(t, resp["data"])
}

func TestListTransactions_BadQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewTransactionHandler(mocks.NewMockTransactionService(ctrl))

	for _, target := range []string{"/?page=0", "/?page_size=abc", "/?kind=deposit", "/?from=yesterday"} {
		c, w := jsonContext(http.MethodGet, target, nil)
		c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}
		h.List(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

// --- Balance Handler Tests ---

func TestClientBalance_ValuationUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBalance := mocks.NewMockBalanceService(ctrl)
	h := NewBalanceHandler(mockBalance, mocks.NewMockPriceSource(ctrl))

	clientID := uuid.New()
	mockBalance.EXPECT().GetSummary(gomock.Any(), clientID).Return(&domain.BalanceSummary{
		TransactionCount:    1,
		DepositCount:        1,
		TotalDepositedCents: 100000,
		DepositedBTC:        decimal.RequireFromString("0.002"),
		WithdrawnBTC:        decimal.Zero,
		NetBTC:              decimal.RequireFromString("0.002"),
		AvgDepositPrice:     decimal.RequireFromString("500000"),
	}, nil)

	c, w := jsonContext(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: clientID.String()}}
	h.ClientBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Nil(t, data["valuation"])
	assert.Equal(t, "UNAVAILABLE", data["valuation_status"])
	assert.Equal(t, "0.00200000", data["net_btc"])
	assert.Equal(t, "500000.00", data["avg_deposit_price"])
}

func TestMyBalance_Available(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBalance := mocks.NewMockBalanceService(ctrl)
	h := NewBalanceHandler(mockBalance, mocks.NewMockPriceSource(ctrl))

	clientID := uuid.New()
	mockBalance.EXPECT().GetSummary(gomock.Any(), clientID).Return(&domain.BalanceSummary{
		TotalDepositedCents: 100000,
		DepositedBTC:        decimal.RequireFromString("0.002"),
		WithdrawnBTC:        decimal.Zero,
		NetBTC:              decimal.RequireFromString("0.002"),
		AvgDepositPrice:     decimal.RequireFromString("500000"),
		Valuation: &domain.Valuation{
			SpotPrice:         decimal.RequireFromString("600000"),
			CurrentValueCents: 120000,
			ProfitLossCents:   20000,
		},
	}, nil)

	c, w := jsonContext(http.MethodGet, "/", nil)
	asClient(c, clientID)
	h.MyBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "AVAILABLE", data["valuation_status"])
	valuation := data["valuation"].(map[string]interface{})
	assert.Equal(t, "600000.00", valuation["spot_price"])
	assert.Equal(t, float64(20000), valuation["profit_loss"].(map[string]interface{})["cents"])
}

func TestClientBalance_LedgerInconsistent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBalance := mocks.NewMockBalanceService(ctrl)
	h := NewBalanceHandler(mockBalance, mocks.NewMockPriceSource(ctrl))

	mockBalance.EXPECT().GetSummary(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrLedgerInconsistent(domain.ErrNegativeBalance))

	c, w := jsonContext(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}
	h.ClientBalance(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "LEDGER_001", errorCode(t, w))
}

func TestFundStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBalance := mocks.NewMockBalanceService(ctrl)
	h := NewBalanceHandler(mockBalance, mocks.NewMockPriceSource(ctrl))

	mockBalance.EXPECT().GetFundStats(gomock.Any()).Return(&ports.FundStats{
		ClientCount:         4,
		TotalDepositedCents: 1000000,
		NetBTC:              decimal.RequireFromString("0.03"),
	}, nil)

	c, w := jsonContext(http.MethodGet, "/", nil)
	h.FundStats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(4), data["client_count"])
	assert.Equal(t, "0.03000000", data["net_btc"])
	assert.Equal(t, "UNAVAILABLE", data["valuation_status"])
}

func TestBTCPrice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	prices := mocks.NewMockPriceSource(ctrl)
	h := NewBalanceHandler(mocks.NewMockBalanceService(ctrl), prices)

	prices.EXPECT().SpotPrice(gomock.Any()).Return(&domain.PriceQuote{
		Price:     decimal.RequireFromString("512345.6"),
		Currency:  "brl",
		Source:    "coingecko",
		FetchedAt: time.Now(),
	}, nil)

	c, w := jsonContext(http.MethodGet, "/", nil)
	h.BTCPrice(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "512345.60", data["price"])
	assert.Equal(t, "R$512.345,60", data["display"])
}

func TestBTCPrice_Unavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	prices := mocks.NewMockPriceSource(ctrl)
	h := NewBalanceHandler(mocks.NewMockBalanceService(ctrl), prices)

	prices.EXPECT().SpotPrice(gomock.Any()).Return(nil, errors.New("upstream timeout"))

	c, w := jsonContext(http.MethodGet, "/", nil)
	h.BTCPrice(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "PRICE_001", errorCode(t, w))
}

// --- Health Check Tests ---

func TestHealthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pg := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Ping(gomock.Any()).Return(nil)
	pg.EXPECT().Name().Return("postgresql").AnyTimes()

	c, w := jsonContext(http.MethodGet, "/health", nil)
	HealthCheck(pg)(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pg := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Ping(gomock.Any()).Return(nil)
	pg.EXPECT().Name().Return("postgresql").AnyTimes()
	rd := mocks.NewMockHealthChecker(ctrl)
	rd.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	rd.EXPECT().Name().Return("redis").AnyTimes()

	c, w := jsonContext(http.MethodGet, "/health", nil)
	HealthCheck(pg, rd)(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	assert.Equal(t, "unhealthy", deps["redis"].(map[string]interface{})["status"])
}
