// internal/app/server.go
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"subpay-service/internal/billing"
	"subpay-service/internal/config"
	"subpay-service/internal/db"
	"subpay-service/internal/domain/plan"
	"subpay-service/internal/events"
	"subpay-service/internal/gateway"
	billingHandler "subpay-service/internal/handlers/billing"
	planHandler "subpay-service/internal/handlers/plans"
	settlementHandler "subpay-service/internal/handlers/settlement"
	subscriptionHandler "subpay-service/internal/handlers/subscription"
	"subpay-service/internal/middleware"
	"subpay-service/internal/pkg/jwt"
	"subpay-service/internal/repository/postgres"
	billingUsecase "subpay-service/internal/service/billing"
	planUsecase "subpay-service/internal/service/plans"
	settlementUsecase "subpay-service/internal/service/settlement"
	"subpay-service/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &Server{cfg: cfg, engine: gin.New()}, nil
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := postgres.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(s.cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()
	log.Println("[REDIS] connected")

	// ----- Billing state store -----
	store := storage.NewRedisStore(redisClient, s.cfg.RedisPrefix)

	// ----- Settlement outbox + dispatcher -----
	outboxRepo := postgres.NewSettlementOutboxRepository(pool)
	if err := outboxRepo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare settlement outbox schema: %w", err)
	}

	gw := gateway.NewHTTPGateway(s.cfg.GatewayURL, 30*time.Second, logger)
	dispatcher := settlementUsecase.NewDispatcherService(outboxRepo, gw, s.cfg.DispatchInterval, logger)

	dispatchCtx, stopDispatcher := context.WithCancel(ctx)
	defer stopDispatcher()
	go dispatcher.Run(dispatchCtx)

	// ----- Billing engine -----
	settler, err := billing.NewSettler(billing.Config{
		ProviderAddress:   s.cfg.ProviderAddress,
		ServiceAccount:    s.cfg.ServiceAccount,
		FeeRateBps:        s.cfg.FeeRateBps,
		FTStorageDeposit:  s.cfg.FTStorageDeposit,
		FTTransferDeposit: s.cfg.FTTransferDeposit,
		FTTransferGas:     s.cfg.FTTransferGas,
	}, store, billing.SystemClock(), dispatcher, logger)
	if err != nil {
		return fmt.Errorf("failed to build settler: %w", err)
	}

	// ----- JWT Manager -----
	jwtManager, err := jwt.NewManager(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to build JWT manager: %w", err)
	}

	// ----- WebSocket Hub -----
	hub := events.NewHub(logger)

	// ----- Services (Usecases) -----
	planService := planUsecase.NewPlanService(settler.Registry(), logger)
	billingService := billingUsecase.NewBillingService(settler, hub, logger)

	if err := s.seedPlans(ctx, planService); err != nil {
		return err
	}

	// ----- Handlers -----
	planHandlerInst := planHandler.NewPlanHandler(planService, logger)
	subscriptionHandlerInst := subscriptionHandler.NewSubscriptionHandler(billingService, logger)
	billingHandlerInst := billingHandler.NewBillingHandler(billingService, logger)
	settlementHandlerInst := settlementHandler.NewSettlementHandler(dispatcher, hub, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, s.cfg.ProviderAddress, s.cfg.ProviderAPIKeyHash)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		PlanHandler:         planHandlerInst,
		SubscriptionHandler: subscriptionHandlerInst,
		BillingHandler:      billingHandlerInst,
		SettlementHandler:   settlementHandlerInst,
		AuthMiddleware:      authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}

// seedPlans loads the optional initial plan catalog. Plans that already
// exist are skipped so restarts do not fail.
func (s *Server) seedPlans(ctx context.Context, planService *planUsecase.PlanService) error {
	if s.cfg.InitialPlansFile == "" {
		return nil
	}

	raw, err := os.ReadFile(s.cfg.InitialPlansFile)
	if err != nil {
		return fmt.Errorf("failed to read initial plans file: %w", err)
	}

	var seed []plan.Plan
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("failed to parse initial plans file: %w", err)
	}

	seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return planService.SeedPlans(seedCtx, seed)
}
