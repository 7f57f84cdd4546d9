package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mediqo/booking-api/config"
	"github.com/mediqo/booking-api/internal/cache"
	"github.com/mediqo/booking-api/internal/handler"
	appointmenthandler "github.com/mediqo/booking-api/internal/handler/appointment"
	authhandler "github.com/mediqo/booking-api/internal/handler/auth"
	doctorhandler "github.com/mediqo/booking-api/internal/handler/doctor"
	feedbackhandler "github.com/mediqo/booking-api/internal/handler/feedback"
	paymenthandler "github.com/mediqo/booking-api/internal/handler/payment"
	userhandler "github.com/mediqo/booking-api/internal/handler/user"
	"github.com/mediqo/booking-api/internal/middleware"
	"github.com/mediqo/booking-api/internal/repository/postgres"
	"github.com/mediqo/booking-api/internal/router"
	"github.com/mediqo/booking-api/internal/schedule"
	appointmentsvc "github.com/mediqo/booking-api/internal/service/appointment"
	authsvc "github.com/mediqo/booking-api/internal/service/auth"
	doctorsvc "github.com/mediqo/booking-api/internal/service/doctor"
	feedbacksvc "github.com/mediqo/booking-api/internal/service/feedback"
	"github.com/mediqo/booking-api/internal/service/notification"
	paymentsvc "github.com/mediqo/booking-api/internal/service/payment"
	usersvc "github.com/mediqo/booking-api/internal/service/user"
	"github.com/mediqo/booking-api/internal/token"
	"github.com/mediqo/booking-api/pkg/auth"
	"github.com/mediqo/booking-api/pkg/logger"
	"github.com/mediqo/booking-api/pkg/security"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(&logger.Config{
		Level:   logger.ParseLevel(cfg.Log.Level),
		Pretty:  cfg.Log.Pretty,
		Service: "booking-api",
	})
	log.Logger = appLogger

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		appLogger.Fatal().Err(err).Str("timezone", cfg.Schedule.Timezone).Msg("invalid timezone")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	tokenStore, err := token.NewRedisStore(cfg.Redis.URL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	userRepo := postgres.NewUserRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	feedbackRepo := postgres.NewFeedbackRepository(db)

	doctorCache := cache.NewDoctorCache(doctorRepo, cfg.Cache.DoctorTTL)

	var notifSvc notification.Service = notification.Noop{}
	if cfg.SMTP.Host != "" {
		notifSvc = notification.NewEmailService(notification.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, appLogger)
	}

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry)
	hasher := security.NewBcryptHasher(0)
	tokenizer := security.NewCardTokenizer(cfg.Schedule.CardSecret)
	grid := schedule.MustDefault()

	// Services
	authService := authsvc.NewService(userRepo, jwtSvc, tokenStore, hasher, notifSvc, appLogger)
	doctorService := doctorsvc.NewService(doctorCache)
	appointmentService := appointmentsvc.NewService(
		appointmentRepo, doctorCache, userRepo, notifSvc, grid, loc, appLogger,
	)
	paymentService := paymentsvc.NewService(paymentRepo, appointmentRepo, doctorCache, tokenizer, appLogger)
	userService := usersvc.NewService(userRepo)
	feedbackService := feedbacksvc.NewService(feedbackRepo)

	// HTTP surface
	baseHandler := handler.NewHandler(db)
	engine := router.New(router.Config{
		Base:           baseHandler,
		Auth:           middleware.NewAuthMiddleware(authService),
		RateLimiter:    middleware.NewRateLimiter(middleware.RateLimiterConfig{Rate: rate.Limit(cfg.RateLimit.RequestsPerSecond), Burst: cfg.RateLimit.Burst}),
		CORS:           middleware.DefaultCORSConfig(),
		RequestTimeout: cfg.Server.RequestTimeout,
		Public: []router.Handler{
			authhandler.NewHandler(authService),
			doctorhandler.NewHandler(doctorService),
		},
		Protected: []router.Handler{
			appointmenthandler.NewHandler(appointmentService),
			paymenthandler.NewHandler(paymentService),
			userhandler.NewHandler(userService),
			feedbackhandler.NewHandler(feedbackService),
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error().Err(err).Msg("forced shutdown")
	}

	appLogger.Info().Msg("server stopped")
}
