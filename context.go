package authcore

import "context"

type contextKey int

const clientIPKey contextKey = iota

// WithClientIP attaches the caller's network identity, used as the rate
// limiting key for login, register, and refresh.
func WithClientIP(ctx context.Context, clientIP string) context.Context {
	return context.WithValue(ctx, clientIPKey, clientIP)
}

// ClientIPFromContext returns the attached client IP, or "" when none was
// set.
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
