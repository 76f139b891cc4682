package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSMiddleware разрешает запросы из браузера с перечисленных origin.
//
// "*" в списке разрешает любой origin. Preflight (OPTIONS) отвечает 204 и
// дальше по цепочке не идёт.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       []string{"Authorization", "Content-Type"},
		AllowCredentials:     true,
		MaxAge:               300,
		OptionsSuccessStatus: http.StatusNoContent,
	})
}
