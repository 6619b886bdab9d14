package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Smoothestguy/commndx-sub004/internal/requestctx"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// RequestID tags every request with an ID, honoring one supplied by the
// caller, and echoes it back in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestctx.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
