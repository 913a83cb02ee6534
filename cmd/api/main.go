package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wedge-matrix/internal/config"
	"wedge-matrix/internal/db"
	"wedge-matrix/internal/email"
	apihttp "wedge-matrix/internal/http"
	"wedge-matrix/internal/pdf"
	"wedge-matrix/internal/repository"
	"wedge-matrix/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type stores struct {
	users    repository.UserRepository
	matrices repository.WedgeMatrixRepository
	tokens   repository.TokenRepository
	close    func()
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer st.close()

	var (
		tokenStore  = service.NewRepositoryTokenStore(st.tokens)
		limiter     = service.NewAttemptLimiter(time.Duration(cfg.LoginRateWindowSeconds)*time.Second, cfg.LoginRateLimit)
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using database token store", zap.Error(err))
		} else {
			tokenStore = service.NewRedisTokenStore(redisClient)
			limiter = service.NewRedisAttemptLimiter(redisClient, time.Duration(cfg.LoginRateWindowSeconds)*time.Second, cfg.LoginRateLimit)
		}
		cancel()
		defer redisClient.Close()
	}

	if limiter == nil {
		logger.Info("login attempt limiter disabled")
	}

	emailSender := newEmailSender(cfg, logger)

	authSvc := service.NewAuthService(cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute, tokenStore)
	userSvc := service.NewUserService(logger, st.users, st.matrices, emailSender, authSvc, limiter)
	matrixSvc := service.NewWedgeMatrixService(logger, st.matrices, pdf.NewRenderer())

	userHandler := apihttp.NewUserHandler(logger, userSvc, authSvc)
	matrixHandler := apihttp.NewWedgeMatrixHandler(logger, matrixSvc)
	router := apihttp.NewRouter(
		logger,
		cfg.CORSAllowedOrigins,
		apihttp.BearerAuthMiddleware(logger, authSvc, userSvc),
		userHandler,
		matrixHandler,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("db_driver", cfg.DBDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (stores, error) {
	if cfg.DBDriver == config.DriverSQLite {
		gdb, err := db.OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return stores{}, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return stores{}, err
		}
		logger.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
		return stores{
			users:    repository.NewGormUserRepository(gdb),
			matrices: repository.NewGormWedgeMatrixRepository(gdb),
			tokens:   repository.NewGormTokenRepository(gdb),
			close:    func() { _ = sqlDB.Close() },
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return stores{}, err
	}
	if err := db.Ping(ctx, pool); err != nil {
		pool.Close()
		return stores{}, err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return stores{}, err
		}
	}
	return stores{
		users:    repository.NewPgUserRepository(pool),
		matrices: repository.NewPgWedgeMatrixRepository(pool),
		tokens:   repository.NewPgTokenRepository(pool),
		close:    pool.Close,
	}, nil
}

func newEmailSender(cfg *config.Config, logger *zap.Logger) email.Sender {
	if cfg.SendGridAPIKey != "" {
		sender, err := email.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
		if err == nil {
			return sender
		}
		logger.Warn("sendgrid sender init failed", zap.Error(err))
	}
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, cfg.MailFromName, cfg.SMTPUseTLS)
		if err == nil {
			return sender
		}
		logger.Warn("smtp sender init failed", zap.Error(err))
	}
	return email.NewDisabledSender("email sender not configured")
}
