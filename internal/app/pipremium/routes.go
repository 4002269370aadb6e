// Package pipremium собирает HTTP-приложение сервиса премиум-доступа Pi.
package pipremium

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/pi-premium/internal/config"
	"github.com/magabrotheeeer/pi-premium/internal/http/handlers/auth/verify"
	"github.com/magabrotheeeer/pi-premium/internal/http/handlers/health"
	"github.com/magabrotheeeer/pi-premium/internal/http/handlers/payment/approve"
	"github.com/magabrotheeeer/pi-premium/internal/http/handlers/payment/complete"
	"github.com/magabrotheeeer/pi-premium/internal/http/handlers/user/info"
	"github.com/magabrotheeeer/pi-premium/internal/http/mware"
)

// Services зависимости обработчиков.
type Services struct {
	Auth     verify.Service
	Approve  approve.Service
	Complete complete.Service
	User     info.Service
	DB       health.Pinger
	Metrics  http.Handler
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		mware.Logger(logger),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}),
	)

	r.Post("/auth/verify", verify.New(logger, s.Auth).ServeHTTP)
	r.Post("/payments/approve", approve.New(logger, s.Approve).ServeHTTP)
	r.Post("/payments/complete", complete.New(logger, s.Complete).ServeHTTP)
	r.Get("/user/{pi_uid}", info.New(logger, s.User).ServeHTTP)
	r.Get("/health", health.New(logger, s.DB).ServeHTTP)

	// Метрики отдаются из реестра приложения, без него маршрут не регистрируется.
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
