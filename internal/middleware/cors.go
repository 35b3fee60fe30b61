package middleware

import "net/http"

// CORSMiddleware реализует политику кросс-доменных запросов с явным
// списком разрешённых origin и поддержкой учётных данных.
type CORSMiddleware struct {
	allowedOrigins map[string]bool
}

// NewCORSMiddleware создаёт CORS middleware с указанным списком разрешённых origin.
func NewCORSMiddleware(origins []string) *CORSMiddleware {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return &CORSMiddleware{
		allowedOrigins: allowed,
	}
}

// Middleware выставляет CORS-заголовки для разрешённых origin и отвечает на preflight-запросы.
func (c *CORSMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && c.allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
