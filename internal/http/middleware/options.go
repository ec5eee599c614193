package middleware

import "net/http"

// OptionsOK answers any OPTIONS request that the CORS layer did not treat as
// a preflight.
func OptionsOK(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
