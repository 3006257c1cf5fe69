package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/cwrk-planet/chat-service/config"
	"github.com/cwrk-planet/chat-service/internal/badgerstore"
	"github.com/cwrk-planet/chat-service/internal/logger"
	"github.com/cwrk-planet/chat-service/internal/postgres"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/security"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/internal/sweeper"
	grpcx "github.com/cwrk-planet/chat-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/chat-service/internal/transport/http"
	"github.com/cwrk-planet/chat-service/internal/transport/ws"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg := logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	lg.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("chat-service stopped with error", "err", err)
		os.Exit(1)
	}
	lg.Info("stopped")
}

func run(ctx context.Context, cfg *config.Config, lg *slog.Logger) error {
	// --- storage ---
	store, err := openStore(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer store.Close()

	// --- security ---
	signer, err := security.NewJWTSigner(security.JWTConfig{
		Secret:    []byte(cfg.Security.JWT.Secret),
		Issuer:    cfg.Security.JWT.Issuer,
		Audience:  cfg.Security.JWT.Audience,
		TTL:       cfg.Security.JWT.TTL,
		ClockSkew: cfg.Security.JWT.ClockSkew,
	}, nil)
	if err != nil {
		return err
	}
	passPolicy := security.BcryptConfig{Cost: cfg.Security.Password.BcryptCost, MinLength: cfg.Security.Password.MinLength}

	// --- services ---
	hub := ws.NewHub()
	locks := service.NewRoomLocks()
	authSvc := service.NewAuthService(store, signer, passPolicy, nil)
	roomSvc := service.NewRoomService(store, locks, hub, nil)
	inviteSvc := service.NewInviteService(store, locks, hub, cfg.Invites.TTL, nil)
	chatSvc := service.NewChatService(store, hub, nil)

	// --- WS ---
	wsServer := ws.NewServer(hub, authSvc, roomSvc, chatSvc, ws.Config{
		PingInterval:   cfg.WS.PingEvery,
		WriteTimeout:   cfg.WS.WriteTimeout,
		SendBuffer:     cfg.WS.SendBuffer,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	// --- HTTP ---
	handler := httpx.NewHandler(authSvc, roomSvc, inviteSvc, chatSvc, hub)
	router := httpx.NewRouter(handler, authSvc, roomSvc, wsServer.HandleWS, httpx.RouterConfig{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Timeout:        cfg.HTTP.RequestTimeout,
	})
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// --- gRPC ---
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcx.UnaryServerInterceptor(),
			grpcx.AuthInterceptor(authSvc, grpcx.PublicMethods()...),
		),
	)
	grpcx.Register(grpcServer, grpcx.NewServer(authSvc, roomSvc, inviteSvc, chatSvc))

	// --- sweeper ---
	sw := sweeper.New(inviteSvc, cfg.Invites.SweepInterval, nil)

	// --- run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lg.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		lg.Info("grpc listen", "addr", cfg.GRPC.Addr)
		return grpcServer.Serve(lis)
	})

	g.Go(func() error { return sw.Run(gctx) })

	// --- graceful shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, lg *slog.Logger) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverBadger:
		lg.Info("badger open", "path", cfg.Badger.Path, "in_memory", cfg.Badger.InMemory)
		st, err := badgerstore.Open(badgerstore.Config{Path: cfg.Badger.Path, InMemory: cfg.Badger.InMemory, Logger: lg})
		if err != nil {
			return nil, err
		}
		return st, nil

	default:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		pool, err := postgres.NewPool(connectCtx, cfg.Postgres.ToPGConfig())
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(connectCtx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			lg.Info("postgres migrations applied")
		}
		return postgres.NewStore(pool, cfg.Postgres.TxTimeout), nil
	}
}
