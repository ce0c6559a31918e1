package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_004", "Insufficient permissions", http.StatusForbidden)
}

// ---- Request (REQ) ----

// Validation returns a REQ_001 error carrying a caller-facing message.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("REQ_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrPayloadTooLarge() *AppError {
	return New("REQ_003", "Request body too large", http.StatusRequestEntityTooLarge)
}

// ---- Ledger transactions (TXN) ----

func ErrInvalidAmount() *AppError {
	return New("TXN_001", "Amount must be positive", http.StatusBadRequest)
}

func ErrInvalidPrice() *AppError {
	return New("TXN_002", "Price must be positive", http.StatusBadRequest)
}

func ErrInsufficientBTC() *AppError {
	return New("TXN_003", "Withdrawal exceeds available BTC balance", http.StatusUnprocessableEntity)
}

func ErrClientHasTransactions() *AppError {
	return New("TXN_004", "Client has recorded transactions", http.StatusConflict)
}

func ErrAmountOutOfRange() *AppError {
	return New("TXN_005", "Amount is too large to record", http.StatusBadRequest)
}

// ---- Market data (PRICE) ----

func ErrPriceUnavailable(err error) *AppError {
	return Wrap("PRICE_001", "BTC price unavailable", http.StatusServiceUnavailable, err)
}

// ---- Ledger integrity (LEDGER) ----

func ErrLedgerInconsistent(err error) *AppError {
	return Wrap("LEDGER_001", "Ledger is inconsistent", http.StatusInternalServerError, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Ledger is busy, retry later", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
