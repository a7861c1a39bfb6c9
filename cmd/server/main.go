package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dkurbatov/learning_platform/internal/config"
	"github.com/dkurbatov/learning_platform/internal/events"
	"github.com/dkurbatov/learning_platform/internal/handlers"
	"github.com/dkurbatov/learning_platform/internal/httpserver"
	"github.com/dkurbatov/learning_platform/internal/logging"
	authmw "github.com/dkurbatov/learning_platform/internal/middleware/auth"
	"github.com/dkurbatov/learning_platform/internal/obs"
	"github.com/dkurbatov/learning_platform/internal/service"
	"github.com/dkurbatov/learning_platform/internal/session"
	"github.com/dkurbatov/learning_platform/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)

	gormDB, err := db.Open(context.Background(), cfg.DSN())
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("db migration error: %v", err)
	}

	jwtSecret := []byte(cfg.JWTSecret)
	refreshSecret := []byte(cfg.RefreshSecret)

	var prod *events.Producer
	if cfg.KafkaAddress != "" {
		prod = events.NewProducer([]string{cfg.KafkaAddress})
	}

	sessions := session.NewGormStore(gormDB)
	authSvc := &service.AuthService{
		DB:            gormDB,
		Sessions:      sessions,
		JWTSecret:     jwtSecret,
		RefreshSecret: refreshSecret,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepSessions(sweepCtx, sessions, logger)

	obs.Init()

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: true,
	}))
	e.Use(logging.RequestLogger(logger), obs.Middleware)

	deps := httpserver.Deps{
		AuthHandler:      &handlers.AuthHandler{Auth: authSvc, Producer: prod, SecureCookies: cfg.IsProduction()},
		CourseHandler:    &handlers.CourseHandler{DB: gormDB, Producer: prod},
		StudentHandler:   &handlers.StudentHandler{DB: gormDB, Producer: prod},
		DashboardHandler: &handlers.DashboardHandler{DB: gormDB},
		Gate:             &authmw.Gate{JWTSecret: jwtSecret},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}

// sweepSessions drops expired refresh-token rows once at startup and
// then hourly, so spent sessions do not pile up in the table.
func sweepSessions(ctx context.Context, sessions session.Store, logger *slog.Logger) {
	sweep := func() {
		n, err := sessions.DeleteExpired(ctx)
		if err != nil {
			logger.Error("session sweep failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("session sweep", "deleted", n)
		}
	}

	sweep()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
