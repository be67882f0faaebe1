// Command devfolio-server serves the portfolio REST and GraphQL API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/and161185/devfolio/internal/audit"
	"github.com/and161185/devfolio/internal/authz"
	"github.com/and161185/devfolio/internal/config"
	"github.com/and161185/devfolio/internal/limiter"
	"github.com/and161185/devfolio/internal/migrate"
	"github.com/and161185/devfolio/internal/repository"
	"github.com/and161185/devfolio/internal/repository/memory"
	"github.com/and161185/devfolio/internal/repository/postgres"
	gqlserver "github.com/and161185/devfolio/internal/server/graphql"
	grpcserver "github.com/and161185/devfolio/internal/server/grpc"
	httpserver "github.com/and161185/devfolio/internal/server/http"
	"github.com/and161185/devfolio/internal/service"
	"github.com/and161185/devfolio/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration and runs the server until SIGINT or SIGTERM.
func main() {
	configPath := flag.String("config", "config.yaml", "YAML config file (optional)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded into the environment (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTP.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(c config.Log) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = lvl
	return zc.Build()
}

// backend is the storage selected by configuration.
type backend struct {
	users     repository.UserRepository
	refresh   repository.RefreshTokenRepository
	owners    repository.OwnerRepository
	projects  repository.ProjectRepository
	posts     repository.BlogPostRepository
	skills    repository.SkillRepository
	inquiries repository.InquiryRepository
	lim       limiter.Limiter
	health    interface{ Ping(context.Context) error }
	close     func()
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backend, error) {
	if cfg.Database.DSN == "" {
		log.Warn("no database.dsn configured, using in-memory storage; data is lost on exit")
		store := memory.New()
		b := &backend{
			users: store.Users(), refresh: store.RefreshTokens(), owners: store.Owners(),
			projects: store.Projects(), posts: store.BlogPosts(), skills: store.Skills(),
			inquiries: store.Inquiries(), lim: limiter.Nop{}, health: store, close: func() {},
		}
		if cfg.Limiter.Enabled {
			b.lim = limiter.NewMemory(cfg.Limiter.Window, cfg.Limiter.MaxFails, cfg.Limiter.BlockFor)
		}
		return b, nil
	}

	if cfg.Database.Migrate {
		if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
	}
	db, err := postgres.New(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	b := &backend{
		users:     postgres.NewUserRepo(db),
		refresh:   postgres.NewRefreshRepo(db),
		owners:    postgres.NewOwnerRepo(db),
		projects:  postgres.NewProjectRepo(db),
		posts:     postgres.NewBlogPostRepo(db),
		skills:    postgres.NewSkillRepo(db),
		inquiries: postgres.NewInquiryRepo(db),
		lim:       limiter.Nop{},
		health:    db,
		close:     db.Close,
	}
	if cfg.Limiter.Enabled {
		b.lim = limiter.NewPG(db.Pool, cfg.Limiter.Window, cfg.Limiter.MaxFails, cfg.Limiter.BlockFor)
	}
	return b, nil
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	var pub audit.Publisher = audit.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		pub = audit.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn("close audit publisher", zap.Error(err))
		}
	}()
	rec := audit.NewRecorder(pub, log)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := rec.Close(ctx); err != nil {
			log.Warn("audit queue not drained", zap.Error(err))
		}
	}()

	issuer := token.NewIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTTL)
	svc := service.Services{
		Auth:      service.NewAuthService(b.users, b.refresh, issuer, cfg.Auth.RefreshTTL, b.lim, rec, log),
		Identity:  service.NewIdentityResolver(b.users, issuer),
		Users:     service.NewUserService(b.users, rec, log),
		Projects:  service.NewProjectService(b.projects),
		Posts:     service.NewBlogPostService(b.posts),
		Skills:    service.NewSkillService(b.skills),
		Inquiries: service.NewInquiryService(b.inquiries, b.users),
	}
	gate := authz.NewGate(b.owners, log, authz.WithConcealExistence(cfg.Auth.ConcealExistence))

	schema, err := gqlserver.New(svc, gate, log)
	if err != nil {
		return err
	}
	api := httpserver.New(httpserver.Options{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		BodyLimit:    cfg.HTTP.BodyLimit,
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		RateLimit:    cfg.HTTP.RateLimit,
		RateBurst:    cfg.HTTP.RateBurst,
		GraphQL:      schema.Handler(),
	}, svc, gate, b.health, log)

	errCh := make(chan error, 2)
	go func() { errCh <- api.Start() }()

	var hs *grpcserver.Server
	if cfg.GRPC.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.HealthAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.GRPC.HealthAddr, err)
		}
		hs = grpcserver.New(b.health, cfg.GRPC.CheckEvery, cfg.GRPC.Reflection, log)
		go hs.Watch(ctx)
		go func() { errCh <- hs.Serve(lis) }()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if hs != nil {
		hs.Stop(shutdownCtx)
	}
	if err := api.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("http shutdown", zap.Error(err))
	}
	return runErr
}
