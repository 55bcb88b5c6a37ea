package server

import "net/http"

const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, POST, PATCH, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
	corsMaxAgeS      = "86400"
	corsVary         = "Origin, Access-Control-Request-Method, Access-Control-Request-Headers"
)

// corsMiddleware applies the permissive CORS policy benchmark dashboards
// expect from real devices, including the private-network preflight header
// Chrome sends when a public page talks to a LAN miner.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", corsAllowOrigin)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)

		if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
			h.Set("Access-Control-Allow-Headers", reqHeaders)
		} else {
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		}

		h.Set("Access-Control-Max-Age", corsMaxAgeS)
		h.Set("Access-Control-Allow-Private-Network", "true")

		if existing := h.Get("Vary"); existing == "" {
			h.Set("Vary", corsVary)
		} else {
			h.Set("Vary", existing+", "+corsVary)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
