package requestdata

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type requestDataKey struct{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData is the authenticated caller as asserted by the upstream
// identity provider.
type RequestData struct {
	UserID uuid.UUID
	Email  string
}

// ActorEmail returns the normalized caller email or "".
func ActorEmail(ctx context.Context) string {
	rd := GetRequestData(ctx)
	if rd == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(rd.Email))
}
