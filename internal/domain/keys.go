package domain

import "context"

type CtxKey string

const (
	KeyClientIP CtxKey = "ClientIP"
)

// ClientIPFrom returns the caller IP stored by the request middleware.
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(KeyClientIP).(string)
	return ip
}
