// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fashionsphere-service/internal/config"
	"fashionsphere-service/internal/db"
	campaignHandler "fashionsphere-service/internal/handlers/campaign"
	productHandler "fashionsphere-service/internal/handlers/product"
	userHandler "fashionsphere-service/internal/handlers/user"
	wsHandler "fashionsphere-service/internal/handlers/websocket"
	"fashionsphere-service/internal/middleware"
	"fashionsphere-service/internal/pkg/jwt"
	"fashionsphere-service/internal/pkg/lock"
	"fashionsphere-service/internal/pkg/ratelimit"
	redisrepo "fashionsphere-service/internal/repository/redis"
	"fashionsphere-service/internal/scheduler"
	authUsecase "fashionsphere-service/internal/service/auth"
	campaignUsecase "fashionsphere-service/internal/service/campaign"
	"fashionsphere-service/internal/service/discount"
	"fashionsphere-service/internal/service/email"
	productUsecase "fashionsphere-service/internal/service/product"
	"fashionsphere-service/internal/service/restock"
	waitlistUsecase "fashionsphere-service/internal/service/waitlist"
	"fashionsphere-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockPrefix = "fashionsphere:lock:"

type Server struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	http   *http.Server
	logger *zap.Logger

	stores    *stores
	redis     *redis.Client
	hub       *websocket.Hub
	stopHub   context.CancelFunc
	scheduler *scheduler.Scheduler
}

func NewServer(cfg *config.AppConfig) (*Server, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}, nil
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func (s *Server) Logger() *zap.Logger {
	return s.logger
}

// Build wires every component and starts the hub and the scheduler.
func (s *Server) Build(ctx context.Context) error {
	logger := s.logger

	// ----- Stores -----
	st, err := openStores(ctx, s.cfg)
	if err != nil {
		return err
	}
	s.stores = st
	logger.Info("stores ready", zap.String("driver", s.cfg.StoreDriver))

	// ----- Redis (optional) -----
	var (
		locker   lock.Locker = lock.NewLocal()
		attempts authUsecase.AttemptLimiter
		reports  scheduler.ReportStore
	)
	if s.cfg.Redis.Enabled {
		client, err := db.NewRedisClient(ctx, s.cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		s.redis = client
		locker = lock.NewRedis(client, lockPrefix, logger)
		attempts = ratelimit.NewLoginLimiter(client)
		reports = redisrepo.NewReportStore(client)
		logger.Info("redis connected", zap.String("addr", s.cfg.Redis.Addr))
	} else {
		logger.Warn("redis disabled, locks and login limits are process local")
	}

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Email -----
	var transport email.Transport
	if s.cfg.SMTPEnabled() {
		transport = email.NewSMTPSender(s.cfg.SMTP)
	} else {
		logger.Warn("SMTP_HOST not set, emails are logged instead of sent")
		transport = email.NewLogTransport(logger)
	}
	mailer := email.NewDispatcher(transport, s.cfg.Notify, logger)

	// ----- WebSocket Hub -----
	s.hub = websocket.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go s.hub.Run(hubCtx)

	// ----- Engines -----
	policy, err := discount.ParseNotifyPolicy(s.cfg.Sale.NotifyPolicy)
	if err != nil {
		return err
	}
	reconciler := discount.NewReconciler(
		st.campaigns,
		st.products,
		st.users,
		mailer,
		discount.Options{
			Concurrency:  s.cfg.Sale.UpdateConcurrency,
			NotifyPolicy: policy,
		},
		logger,
	).WithPublisher(s.hub)

	restockEngine := restock.NewEngine(st.waitlist, mailer, locker, s.cfg.Restock, logger).
		WithPublisher(s.hub)

	sched, err := scheduler.New(s.cfg.Sale.Scheduler, reconciler, locker, reports, logger)
	if err != nil {
		return fmt.Errorf("failed to build scheduler: %w", err)
	}
	s.scheduler = sched

	// ----- Services (Usecases) -----
	authService := authUsecase.NewAuthService(st.users, jwtManager, attempts, logger)
	campaignService := campaignUsecase.NewCampaignService(st.campaigns, logger)
	campaignService.OnChange(sched.Trigger)
	productService := productUsecase.NewProductService(st.products, campaignService, restockEngine, st.waitlist, logger)
	waitlistService := waitlistUsecase.NewWaitlistService(st.waitlist, st.products, logger)

	if err := s.ensureAdmin(ctx, authService); err != nil {
		logger.Error("failed to ensure admin account", zap.Error(err))
	}

	// ----- Router -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.HTTP.CORSOrigins),
	)
	SetupRouter(s.engine, &Handlers{
		UserHandler:     userHandler.NewUserHandler(authService, logger),
		CampaignHandler: campaignHandler.NewCampaignHandler(campaignService, sched),
		ProductHandler:  productHandler.NewProductHandler(productService, waitlistService),
		WSHandler:       wsHandler.NewWebSocketHandler(s.hub, s.cfg.HTTP.CORSOrigins, logger),
		AuthMiddleware:  middleware.NewAuthMiddleware(jwtManager.Verifier),
	})

	s.http = &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sched.Start()
	return nil
}

// Run serves HTTP until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("server running", zap.String("addr", s.cfg.HTTP.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) ensureAdmin(ctx context.Context, authService *authUsecase.AuthService) error {
	if s.cfg.Admin.Email == "" {
		s.logger.Warn("ADMIN_EMAIL not set, skipping admin bootstrap")
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return authService.EnsureAdminExists(ctx, s.cfg.Admin.Email, s.cfg.Admin.Password, s.cfg.Admin.Name)
}

// Shutdown stops accepting requests, waits for an in-flight reconciliation and
// releases connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.scheduler != nil {
		if err := s.scheduler.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
		}
	}
	if s.stopHub != nil {
		s.stopHub()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if s.stores != nil {
		s.stores.Close()
	}
	_ = s.logger.Sync()
	return errors.Join(errs...)
}
