package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"

	"kids_math/internal/api/handler"
	"kids_math/internal/api/middleware"
	"kids_math/internal/app/service"
	"kids_math/internal/common/security"
	"kids_math/internal/platform/logger"
)

type Services struct {
	Auth     *service.AuthService
	Exercise *service.ExerciseService
	Progress *service.ProgressService
	Session  *service.SessionService
	Report   *service.ReportService
}

func NewRouter(svc Services, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifier only parses "Authorization: Bearer T"; Authenticator enforces it.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", handler.NewAuthHandler(svc.Auth).RegisterRoutes)

		v1.Group(func(authed chi.Router) {
			authed.Use(middleware.Authenticator)

			handler.NewUserHandler(svc.Progress).RegisterRoutes(authed)
			authed.Route("/exercises", handler.NewExerciseHandler(svc.Exercise).RegisterRoutes)
			authed.Route("/sessions", handler.NewSessionHandler(svc.Session).RegisterRoutes)
			authed.Route("/reports", handler.NewReportHandler(svc.Report).RegisterRoutes)
		})
	})

	return r
}
