package app

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/MTOUIRI/SmartJihawi/internal/app/observability"
	"github.com/MTOUIRI/SmartJihawi/internal/auth"
	"github.com/MTOUIRI/SmartJihawi/internal/chapter"
	"github.com/MTOUIRI/SmartJihawi/internal/exam"
	"github.com/MTOUIRI/SmartJihawi/internal/qcm"
	"github.com/MTOUIRI/SmartJihawi/internal/question"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(cfg Config, db *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	collector := observability.NewCollector(db)
	r.Use(collector.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL())

	mailer := auth.NewSMTPMailer(auth.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})

	authSvc := auth.NewService(db, auth.ServiceConfig{
		Tokens:     tokens,
		Mailer:     mailer,
		BcryptCost: cfg.BcryptCost,
	})
	authHandler := auth.NewHandler(authSvc)

	questionSvc := question.NewService(db)
	questionHandler := question.NewHandler(questionSvc)
	essaySvc := question.NewEssayService(db)
	essayHandler := question.NewEssayHandler(essaySvc)

	examSvc := exam.NewService(db, questionSvc, essaySvc)
	examHandler := exam.NewHandler(examSvc)

	chapterSvc := chapter.NewService(db)
	chapterHandler := chapter.NewHandler(chapterSvc)

	qcmSvc := qcm.NewService(db)
	qcmHandler := qcm.NewHandler(qcmSvc)

	authLimiter := NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)

	r.Get("/healthz", collector.HealthHandler)
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(RateLimitMiddleware(authLimiter))
			public.Post("/auth/login", authHandler.Login)
			public.Post("/auth/admin/login", authHandler.AdminLogin)
			public.Post("/auth/register", authHandler.Register)
		})

		api.Get("/books", examHandler.ListBooks)

		api.Group(func(secure chi.Router) {
			secure.Use(tokens.RequireAuth)
			secure.Get("/auth/me", authHandler.Me)

			secure.Get("/exams", examHandler.List)
			secure.Get("/exams/book/{bookID}", examHandler.ListByBook)
			secure.Get("/exams/{id}", examHandler.Get)
			secure.Get("/exams/{id}/complete", examHandler.Complete)
			secure.Get("/exams/{id}/statistics", examHandler.Statistics)

			secure.Get("/questions/exam/{examID}", questionHandler.ListByExam)
			secure.Get("/questions/book/{bookID}", questionHandler.ListByBook)
			secure.Get("/questions/{id}", questionHandler.Get)

			secure.Get("/essay-questions/exam/{examID}", essayHandler.ListByExam)
			secure.Get("/essay-questions/book/{bookID}", essayHandler.ListByBook)
			secure.Get("/essay-questions/{id}", essayHandler.Get)

			secure.Get("/chapters/book/{bookID}", chapterHandler.ListByBook)
			secure.Get("/chapters/{id}", chapterHandler.Get)

			secure.Get("/qcm/chapter/{chapterID}", qcmHandler.ListByChapter)
			secure.Get("/qcm/chapter/{chapterID}/count", qcmHandler.CountByChapter)
			secure.Get("/qcm/{id}", qcmHandler.Get)

			secure.Group(func(admin chi.Router) {
				admin.Use(auth.RequireRoles("admin"))

				admin.Post("/exams", examHandler.Create)
				admin.Put("/exams/{id}", examHandler.Update)
				admin.Delete("/exams/{id}", examHandler.Delete)

				admin.Post("/questions/exam/{examID}", questionHandler.Create)
				admin.Post("/questions/exam/{examID}/bulk", questionHandler.CreateBulk)
				admin.Put("/questions/exam/{examID}/reorder", questionHandler.Reorder)
				admin.Put("/questions/{id}", questionHandler.Update)
				admin.Delete("/questions/exam/{examID}", questionHandler.DeleteAllByExam)
				admin.Delete("/questions/{id}", questionHandler.Delete)

				admin.Post("/essay-questions/exam/{examID}", essayHandler.Create)
				admin.Post("/essay-questions/exam/{examID}/bulk", essayHandler.CreateBulk)
				admin.Put("/essay-questions/exam/{examID}/reorder", essayHandler.Reorder)
				admin.Put("/essay-questions/{id}", essayHandler.Update)
				admin.Delete("/essay-questions/exam/{examID}", essayHandler.DeleteAllByExam)
				admin.Delete("/essay-questions/{id}", essayHandler.Delete)

				admin.Post("/chapters", chapterHandler.Create)
				admin.Put("/chapters/{id}", chapterHandler.Update)
				admin.Delete("/chapters/{id}", chapterHandler.Delete)

				admin.Post("/qcm", qcmHandler.Create)
				admin.Put("/qcm/{id}", qcmHandler.Update)
				admin.Delete("/qcm/chapter/{chapterID}", qcmHandler.DeleteAllByChapter)
				admin.Delete("/qcm/{id}", qcmHandler.Delete)

				admin.Get("/admin/users", authHandler.ListUsers)
				admin.Get("/admin/users/pending-payments", authHandler.ListPendingPayments)
				admin.Get("/admin/users/export", authHandler.ExportUsers)
				admin.Post("/admin/users", authHandler.CreateUser)
				admin.Put("/admin/users/{id}", authHandler.UpdateUser)
				admin.Delete("/admin/users/{id}", authHandler.DeleteUser)
				admin.Post("/admin/users/{id}/verify-payment", authHandler.VerifyPayment)
			})
		})
	})

	return r
}
