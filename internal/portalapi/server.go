package portalapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/wagering/internal/oplog"
	"github.com/MarkoPoloResearchLab/wagering/internal/portal"
	"github.com/MarkoPoloResearchLab/wagering/internal/remote"
	"github.com/MarkoPoloResearchLab/wagering/internal/session"
	"github.com/MarkoPoloResearchLab/wagering/internal/store/dbopen"
	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Run boots the HTTP portal using the supplied configuration.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := remote.NewClient(remote.Config{BaseURL: cfg.CasinoAPIURL, Timeout: cfg.CasinoTimeout})
	if err != nil {
		return fmt.Errorf("casino client: %w", err)
	}

	var journal wager.Journal
	if cfg.JournalEnabled() {
		opened, cleanup, err := dbopen.OpenJournal(ctx, cfg.DatabaseURL, dbopen.Options{Backend: cfg.JournalBackend})
		if err != nil {
			return fmt.Errorf("journal open: %w", err)
		}
		defer func() { _ = cleanup() }()
		journal = opened
	}

	handler, err := newHTTPHandler(cfg, client, journal, randomSource(cfg), logger, time.Now)
	if err != nil {
		return err
	}
	router := setupRouter(cfg, handler)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	if cfg.HealthAddr != "" {
		endpoint, err := newHealthEndpoint(cfg.HealthAddr)
		if err != nil {
			return fmt.Errorf("health listen: %w", err)
		}
		endpoint.serve(logger, errCh)
		defer endpoint.stop()
	}

	if cfg.ReconcileInterval > 0 && journal != nil {
		credential, err := wager.NewCredential(cfg.ServiceToken)
		if err != nil {
			return fmt.Errorf("service token: %w", err)
		}
		reconciler, err := wager.NewReconciler(journal, client, credential, unixNow(time.Now), wager.WithOperationLogger(oplog.NewZapLogger(logger)))
		if err != nil {
			return fmt.Errorf("reconciler init: %w", err)
		}
		worker := newReconcileWorker(journalReconciler{reconciler: reconciler, batch: cfg.ReconcileBatch}, cfg.ReconcileInterval, logger)
		go worker.Start(ctx)
	}

	go func() {
		logger.Info("portalapi listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// randomSource returns a reproducible source when a seed is configured.
func randomSource(cfg Config) wager.Random {
	if cfg.Seed != 0 {
		return wager.NewSeededRandom(cfg.Seed)
	}
	return wager.SystemRandom()
}

func newHTTPHandler(cfg Config, api portal.Remote, journal wager.Journal, random wager.Random, logger *zap.Logger, now func() time.Time) (*httpHandler, error) {
	portalService, err := portal.NewService(api, logger)
	if err != nil {
		return nil, fmt.Errorf("portal init: %w", err)
	}
	options := []wager.Option{wager.WithOperationLogger(oplog.NewZapLogger(logger))}
	if journal != nil {
		options = append(options, wager.WithJournal(journal))
	}
	processor, err := wager.NewProcessor(api, random, unixNow(now), options...)
	if err != nil {
		return nil, fmt.Errorf("processor init: %w", err)
	}
	sessions, err := session.NewManager(session.Config{
		SigningKey: []byte(cfg.SessionSigningKey),
		Issuer:     cfg.SessionIssuer,
		CookieName: cfg.SessionCookieName,
		TTL:        cfg.SessionTTL,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}
	return &httpHandler{
		logger:    logger,
		portal:    portalService,
		processor: processor,
		sessions:  sessions,
		journal:   journal,
		cfg:       cfg,
	}, nil
}

func setupRouter(cfg Config, handler *httpHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/session", handler.handleLogin)
	api.GET("/games", handler.handleGames)

	authenticated := api.Group("")
	authenticated.Use(handler.sessions.Middleware())
	authenticated.GET("/session", handler.handleSession)
	authenticated.DELETE("/session", handler.handleLogout)
	authenticated.GET("/dashboard", handler.handleDashboard)
	authenticated.GET("/wallet", handler.handleWallet)
	authenticated.POST("/games/:game/plays", handler.handlePlay)
	authenticated.GET("/plays", handler.handlePlays)
	authenticated.POST("/recharges", handler.handleRecharge)
	authenticated.GET("/promotions", handler.handlePromotions)
	authenticated.POST("/promotions/:code/claims", handler.handleClaim)
	authenticated.GET("/transactions", handler.handleTransactions)
	authenticated.GET("/tickets", handler.handleTickets)
	authenticated.POST("/tickets", handler.handleCreateTicket)

	return router
}

func unixNow(now func() time.Time) func() int64 {
	return func() int64 { return now().UTC().Unix() }
}
