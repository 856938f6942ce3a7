package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	chimw "github.com/go-chi/chi/v5/middleware"

	apphttpx "github.com/platformkit/identity-service/internal/httpx"
	"github.com/platformkit/identity-service/internal/contextx"
	"github.com/platformkit/identity-service/internal/token"
)

// JWTAuthHuma is a router-agnostic Huma middleware that validates the bearer
// token and injects the decoded claims into the request context for
// downstream handlers. On failure it writes an RFC7807 problem+json response
// with code ErrUnauthorized.
func JWTAuthHuma(tokens *token.Service, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)

		writeUnauthorized := func(detail string) {
			reqID := chimw.GetReqID(r.Context())
			p := &apphttpx.Problem{
				Type:      "urn:problem:auth/err-unauthorized",
				Title:     http.StatusText(http.StatusUnauthorized),
				Status:    http.StatusUnauthorized,
				Detail:    detail,
				Code:      "ErrUnauthorized",
				RequestID: reqID,
			}
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(p.GetStatus())
			_ = json.NewEncoder(w).Encode(p)
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeUnauthorized("no token provided")
			return
		}
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			writeUnauthorized("invalid authorization header format")
			return
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			logger.Warn("invalid session token", "error", err)
			writeUnauthorized("invalid or expired token")
			return
		}

		ctx = huma.WithValue(ctx, contextx.ClaimsKey(), claims)
		next(ctx)
	}
}
