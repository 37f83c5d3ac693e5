package middleware

import (
	"errors"
	"net/http"

	"maib-checkout/internal/auth"
	"maib-checkout/internal/logger"

	"go.uber.org/zap"
)

// Authenticate resolves the requester's account. Requests without a token
// continue as anonymous with the configured default permissions; a token
// that fails validation is rejected.
func Authenticate(secret []byte, anonymousPermissions []string, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				ctx := auth.WithAccount(r.Context(), auth.Anonymous(anonymousPermissions))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			acc, err := auth.ParseToken(tokenStr, secret)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					logger.With(r.Context(), log).Debug("Rejected access token", zap.Error(err))
				}
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAccount(r.Context(), acc)))
		})
	}
}

// Chain wraps h so that mws run in the order given.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
