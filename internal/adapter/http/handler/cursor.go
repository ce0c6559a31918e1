package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"btc-fund-manager/internal/core/ports"

	"github.com/google/uuid"
)

// encodeClientCursor renders a keyset position as an opaque URL-safe token.
func encodeClientCursor(cur ports.ClientCursor) string {
	raw := cur.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + cur.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeClientCursor(token string) (*ports.ClientCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil, errors.New("malformed cursor")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("cursor time: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("cursor id: %w", err)
	}
	return &ports.ClientCursor{CreatedAt: createdAt, ID: parsed}, nil
}
