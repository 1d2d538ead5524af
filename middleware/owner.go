package middleware

import (
	"context"
	"net/http"
)

// OwnerChecker answers resource ownership questions.
// *goSession.Engine satisfies it.
type OwnerChecker interface {
	OwnerCheck(ctx context.Context, resourceID, claimedOwnerID string) bool
}

// RequireOwner must run behind Guard. It lets the request through only when
// the authenticated user owns the resource named by resourceID(r).
func RequireOwner(owners OwnerChecker, resourceID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok || owners == nil || resourceID == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !owners.OwnerCheck(r.Context(), resourceID(r), userID) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
