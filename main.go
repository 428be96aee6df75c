// File: travelease/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"travelease/config"
	"travelease/cron"
	"travelease/handlers"
	"travelease/middleware"
	"travelease/routes"
	"travelease/services/api"
	"travelease/services/booking"
	"travelease/services/history"
	"travelease/services/notification"
	"travelease/services/pricing"
	"travelease/services/tasks"
	"travelease/utils"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Stores.
	var (
		sessions booking.SessionStore
		latest   booking.LatestBookingCache
	)
	if cfg.UseRedis() {
		if err := utils.InitRedis(); err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		defer utils.CloseRedis()
		sessions = booking.NewRedisSessionStore(utils.SessionCacheClient, cfg.SessionTTL)
		latest = booking.NewRedisLatestBookingCache(utils.CacheClient)
	} else {
		logger.Warn("main: CACHE_BACKEND=memory, sessions and caches are process local")
		sessions = booking.NewMemorySessionStore(cfg.SessionTTL)
		latest = booking.NewMemoryLatestBookingCache()
	}

	// Remote API.
	client := api.NewHTTPClient(cfg.APIBaseURL, cfg.APITimeout, logger.Named("api"))

	// Notifications.
	var notifier notification.Notifier = notification.NewLogNotifier(logger.Named("mail"))
	if cfg.MailEnabled() {
		email, err := notification.NewEmailNotifier(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Timeout:  cfg.NotifyTimeout,
		}, logger.Named("mail"))
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize email notifier: %v", err)
		}
		notifier = email

		// Failed confirmations are retried in the background.
		if cfg.RetryMail() {
			redisOpt := asynq.RedisClientOpt{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisQueueDB,
			}
			queue := asynq.NewClient(redisOpt)
			defer queue.Close()
			notifier = tasks.NewQueuedNotifier(email, queue, cfg.MailMaxRetry, logger.Named("mail"))

			worker := cron.NewConfirmationWorker(redisOpt, email, logger.Named("mail-worker"))
			worker.Start()
			defer worker.Shutdown()
		}
	}

	// Services.
	flows := booking.NewRegistry(booking.FlowDeps{
		Fetcher: client,
		Coupons: pricing.DefaultRegistry(),
		IdleTTL: cfg.SessionTTL,
		Controller: booking.ControllerDeps{
			Booker:        client,
			Sessions:      sessions,
			Cache:         latest,
			Notifier:      notifier,
			Logger:        logger.Named("booking"),
			SubmitTimeout: cfg.SubmitTimeout,
			NotifyTimeout: cfg.NotifyTimeout,
		},
	})
	historyService := history.NewService(client, latest, logger.Named("history"))

	busHandler := handlers.NewBusHandler(client, flows, logger)
	checkoutHandler := handlers.NewCheckoutHandler(flows, handlers.PaymentConfig{
		PayeeVPA:  cfg.UPIPayee,
		PayeeName: cfg.UPIPayeeName,
	}, logger)
	historyHandler := handlers.NewHistoryHandler(historyService, logger)

	handlerBundle := handlers.NewHandlerBundle(client, utils.AuthCacheClient, busHandler, checkoutHandler, historyHandler)

	// Create the Gin router.
	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle, cfg.AllowedOrigins())

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	flows.StartJanitor(monitorCtx, time.Minute, logger.Named("booking"))
	utils.StartHealthMonitor(monitorCtx, time.Minute, utils.RedisClients(), func(ctx context.Context) error {
		_, err := client.ListBuses(ctx)
		return err
	})

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("api", cfg.APIBaseURL))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown. The timeout leaves room
	// for an in-flight booking submission to resolve.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SubmitTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
