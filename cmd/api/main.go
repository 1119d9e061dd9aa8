package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/email"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/router"
	sessionrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/session/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/password"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

func main() {
	// best-effort: without a .env file the real environment is used
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}
	sugar.Infow("starting", "app", cfg.AppName, "env", cfg.AppEnv, "session_store", cfg.Sessions.Store)

	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users := userrepo.NewUserRepo(db)
	sessions, closeSessions, err := sessionStore(ctx, cfg, db, users, sugar)
	if err != nil {
		sugar.Fatalf("session store: %v", err)
	}
	defer closeSessions()

	dispatcher := email.NewDispatcher(email.DispatcherConfig{
		QueueSize:   cfg.Email.QueueSize,
		Workers:     cfg.Email.Workers,
		MaxAttempts: cfg.Email.MaxAttempts,
		RetryDelay:  cfg.Email.RetryDelay,
	}, email.NewLogSender(sugar.Named("email")), utilities.NewIDSource(utilities.SnowflakeNodeFromEnv()), sugar.Named("email"))
	// not tied to ctx so Stop can drain the queue after a signal
	dispatcher.Start(context.Background())

	hasher := password.NewHasher(cfg.PasswordParams())
	hp := hasher.Params()
	sugar.Infow("password hashing", "memory_kib", hp.MemoryKiB, "iterations", hp.Iterations, "parallelism", hp.Parallelism)

	registry := auth.NewRegistryBuilder().
		Register(auth.MethodEmailPassword, auth.NewEmailPasswordStrategy(
			user.NewUserService(users, sugar.Named("user")),
			hasher,
			email.NewValidator(),
			dispatcher,
			sugar.Named("auth"),
		)).
		Build()
	sugar.Infow("auth methods registered", "methods", registry.Methods())

	codec, err := token.NewCodec([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		sugar.Fatalf("token codec: %v", err)
	}
	issuer := auth.NewSessionIssuer(auth.IssuerConfig{
		Issuer:                 cfg.Issuer(),
		Audience:               cfg.Auth.Audience,
		AccessTokenExpiration:  cfg.Auth.AccessTokenExpiration,
		RefreshTokenExpiration: cfg.Auth.RefreshTokenExpiration,
		SessionExpiration:      cfg.Auth.SessionExpiration,
	}, codec, sessions, auth.DefaultResourceAccess(cfg.AppName), sugar.Named("session"))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.RegisterRoutes(sugar, auth.NewHandler(registry, issuer, sugar.Named("http"))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("listening", "addr", srv.Addr)

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	// no request can enqueue mail any more; deliver what is queued
	dispatcher.Stop()

	sugar.Info("goodbye")
}

// sessionStore creates the tables and returns the configured session store with
// its cleanup function.
func sessionStore(ctx context.Context, cfg config.Config, db *sqlx.DB, users *userrepo.UserRepo, logger *zap.SugaredLogger) (auth.SessionStore, func(), error) {
	if cfg.Sessions.Store == "redis" {
		if err := database.EnsureSchema(ctx, users); err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Sessions.RedisAddr,
			Password: cfg.Sessions.RedisPassword,
			DB:       cfg.Sessions.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Infow("sessions stored in redis", "addr", cfg.Sessions.RedisAddr, "db", cfg.Sessions.RedisDB)
		return sessionrepo.NewRedisSessionRepo(client), func() { _ = client.Close() }, nil
	}

	sessions := sessionrepo.NewSessionRepo(db)
	if err := database.EnsureSchema(ctx, users, sessions); err != nil {
		return nil, nil, err
	}
	return sessions, func() {}, nil
}
