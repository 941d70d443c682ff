package httpapi

import "net/http"

// corsMiddleware sets the headers the external interfaces section
// requires on every response, and answers OPTIONS pre-flight requests
// with a bare 200, matching the original implementation's
// handleAPIRequest (which set these same three headers on every
// response before dispatching).
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
