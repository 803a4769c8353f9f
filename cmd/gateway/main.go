package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	api "github.com/nurhub/nurhub-lms/internal/api/http"
	auth "github.com/nurhub/nurhub-lms/internal/auth/middleware"
	"github.com/nurhub/nurhub-lms/internal/catalog"
	"github.com/nurhub/nurhub-lms/internal/config"
	"github.com/nurhub/nurhub-lms/internal/db"
	"github.com/nurhub/nurhub-lms/internal/finalexam"
	"github.com/nurhub/nurhub-lms/internal/notify"
	"github.com/nurhub/nurhub-lms/internal/progression"
	"github.com/nurhub/nurhub-lms/internal/rbac"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	if err := seedAdmin(ctx, dbh, cfg); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	// --- Stores and services ---
	cat := catalog.NewSQLStore(dbh)
	progressStore := progression.NewSQLStore(dbh)
	answerStore := progression.NewSQLAnswerStore(dbh)
	resultStore := finalexam.NewSQLStore(dbh)
	events := notify.NewEventRepo(dbh)

	unlock := progression.NewController(cat, progressStore, answerStore, events)
	gate := finalexam.NewGate(cat, progressStore, resultStore, events)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))

		// Authoring (ustaz/admin)
		pr.With(rbac.Require("package:create")).
			Post("/packages", api.CreatePackageHandler(cat))
		pr.With(rbac.Require("course:create")).
			Post("/packages/{packageID}/courses", api.CreateCourseHandler(cat))
		pr.With(rbac.Require("chapter:create")).
			Post("/courses/{courseID}/chapters", api.CreateChapterHandler(cat))
		pr.With(rbac.Require("questions:edit")).
			Put("/chapters/{chapterID}/questions", api.SetChapterQuestionsHandler(cat))
		pr.With(rbac.Require("questions:edit")).
			Put("/packages/{packageID}/exam/questions", api.SetExamQuestionsHandler(cat))

		// Catalog reads
		pr.With(rbac.Require("package:view")).
			Get("/packages", api.ListPackagesHandler(cat))
		pr.With(rbac.Require("package:view")).
			Get("/packages/{packageID}", api.GetPackageOutlineHandler(cat))
		pr.With(rbac.Require("chapter:view")).
			Get("/chapters/{chapterID}", api.GetChapterHandler(cat))

		// Student flow
		pr.With(rbac.Require("package:activate")).
			Post("/packages/{packageID}/activate", api.ActivatePackageHandler(unlock))
		pr.With(rbac.Require("quiz:submit")).
			Post("/chapters/{chapterID}/submit", api.SubmitQuizHandler(unlock))
		pr.With(rbac.RequireAny("progress:view-own", "progress:view-all")).
			Get("/packages/{packageID}/progress", api.PackageProgressHandler(unlock))
		pr.With(rbac.Require("exam:view-own")).
			Get("/packages/{packageID}/exam", api.ExamEligibilityHandler(gate))
		pr.With(rbac.Require("exam:submit")).
			Post("/packages/{packageID}/exam/submit", api.SubmitExamHandler(gate))

		// Admin
		pr.With(rbac.Require("exam:lock")).
			Post("/packages/{packageID}/exam/lock", api.LockExamHandler(gate))
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// seedAdmin makes sure one admin login exists so a fresh install is usable.
func seedAdmin(ctx context.Context, dbh *sql.DB, cfg config.Config) error {
	if cfg.AdminPassHash == "" {
		return nil
	}
	_, err := dbh.ExecContext(ctx, `
		INSERT INTO users (id, username, role, pass_hash, created_at)
		VALUES ($1,$2,'admin',$3,$4)
		ON CONFLICT (username) DO NOTHING`,
		uuid.NewString(), cfg.AdminUser, cfg.AdminPassHash, time.Now().Unix())
	return err
}
