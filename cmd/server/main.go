package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/database"
	"github.com/iliyamo/movie-reservation/internal/handler"
	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/middleware"
	"github.com/iliyamo/movie-reservation/internal/queue"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/router"
	"github.com/iliyamo/movie-reservation/internal/service"
)

func main() {
	cfg := config.Load()

	lg := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel))
	if cfg.LogDir != "" {
		if err := lg.WithFile(cfg.LogDir, "server"); err != nil {
			log.Fatalf("logger: %v", err)
		}
	}
	defer lg.Close()
	logger.SetDefault(lg)

	db, err := database.Open(cfg)
	if err != nil {
		lg.Errorf("DATABASE", "open: %v", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(db, cfg.DBDriver); err != nil {
			lg.Errorf("DATABASE", "migrate: %v", err)
			os.Exit(1)
		}
	}
	if v, dirty, err := database.Version(db, cfg.DBDriver); err == nil {
		lg.Infof("DATABASE", "%s schema version %d (dirty=%t)", cfg.DBDriver, v, dirty)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("CACHE", "redis unavailable; caches off, local rate limiting only")
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		events = queue.NewAMQPPublisher(cfg.RabbitMQURL)
		go func() {
			if err := queue.StartBookingConsumer(ctx, cfg.RabbitMQURL, logDirOr(cfg.LogDir)); err != nil && !errors.Is(err, context.Canceled) {
				lg.Errorf("QUEUE", "consumer stopped: %v", err)
			}
		}()
	}

	users := repository.NewUserRepo(db)
	movies := repository.NewMovieRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	seats := repository.NewSeatRepo(db)

	if cfg.AdminUsername != "" {
		bctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if _, err := service.EnsureAdmin(bctx, users, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
			lg.Errorf("AUTH", "admin bootstrap: %v", err)
		}
		cancel()
	}

	availability := service.NewAvailabilityService(seats, rdb, config.LoadAvailabilityCacheConfig(), lg)
	deps := service.Deps{
		DB:           db,
		Reservations: repository.NewReservationRepo(db),
		Payments:     repository.NewPaymentRepo(db),
		Seats:        seats,
		Users:        users,
		Showtimes:    showtimes,
		Availability: availability,
		Events:       events,
		Log:          lg,
	}
	reservations := service.NewReservationService(deps)
	payments := service.NewPaymentService(deps, service.Bernoulli(cfg.PaymentSuccessRate))
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, lg)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				lg.Errorf("API", "%s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			lg.Infof("API", "%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, lg))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, lg), cfg.JWTSecret)
	router.RegisterCatalog(e,
		handler.NewMovieHandler(movies, cache, lg),
		handler.NewShowtimeHandler(showtimes, availability, cache, lg),
		handler.NewAuditoriumHandler(seats, lg),
		cfg.JWTSecret, cache.Middleware())
	router.RegisterBooking(e,
		handler.NewReservationHandler(reservations, lg),
		handler.NewPaymentHandler(payments, reservations, lg),
		cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		lg.Infof("SERVER", "listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Errorf("SERVER", "start: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Errorf("SERVER", "shutdown: %v", err)
	}
	lg.Info("SERVER", "stopped")
}

func logDirOr(dir string) string {
	if dir == "" {
		return "logs"
	}
	return dir
}
