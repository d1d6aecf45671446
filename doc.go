// Package authcore is an embeddable authentication engine: credential
// verification with account lockout, JWT access/refresh token pairs with
// rotation-on-use, redis-backed rate limiting, and per-operation metrics.
//
// The engine is transport-agnostic. An HTTP or gRPC layer supplies input,
// calls one Service method per request, and maps the typed errors to its
// own status codes.
//
// Construction goes through the Builder:
//
//	svc, err := authcore.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithUserStore(users).
//		WithTokenStore(tokens).
//		Build()
package authcore
