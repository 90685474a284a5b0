package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiHttp "github.com/joblo-ai/backend/internal/api/http"
	"github.com/joblo-ai/backend/internal/cache"
	"github.com/joblo-ai/backend/internal/config"
	"github.com/joblo-ai/backend/internal/db"
	"github.com/joblo-ai/backend/internal/queue/asynqserver"
	"github.com/joblo-ai/backend/internal/queue/client"
	"github.com/joblo-ai/backend/internal/queue/dispatcher"
	"github.com/joblo-ai/backend/internal/repository"
	"github.com/joblo-ai/backend/internal/server"
	"github.com/joblo-ai/backend/internal/service"
	"github.com/joblo-ai/backend/internal/worker"
	"github.com/joblo-ai/backend/pkg/auth"
	emailProvider "github.com/joblo-ai/backend/pkg/email"
	emailDev "github.com/joblo-ai/backend/pkg/email/dev"
	"github.com/joblo-ai/backend/pkg/email/ses"
	"github.com/joblo-ai/backend/pkg/email/smtp"
	"github.com/joblo-ai/backend/pkg/hash"
	"github.com/joblo-ai/backend/pkg/logger"
	"github.com/joblo-ai/backend/pkg/otp"
	smsProvider "github.com/joblo-ai/backend/pkg/sms"
	"github.com/joblo-ai/backend/pkg/sms/brevo"
	smsDev "github.com/joblo-ai/backend/pkg/sms/dev"
	"github.com/joblo-ai/backend/pkg/sms/sns"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()

	logger.Setup(cfg.Env, cfg.LogLevel)
	logger.Info("starting accounts backend", zap.String("env", cfg.Env))

	if err := auth.EnsureKeys(cfg.Auth.JWT.KeyDir, cfg.Auth.JWT.Passphrase); err != nil {
		logger.Fatal("signing keys setup failed", zap.Error(err))
	}

	dbMySQL, err := db.New(cfg.Database)
	if err != nil {
		logger.Fatal("mysql connect failed", zap.Error(err))
	}
	defer func() {
		if err := dbMySQL.Close(); err != nil {
			logger.Error("mysql close failed", zap.Error(err))
		}
	}()
	logger.Info("mysql connection done")

	redisClient, err := cache.NewRedis(cfg.Cache)
	if err != nil {
		logger.Fatal("redis connect failed", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close failed", zap.Error(err))
		}
	}()
	logger.Info("redis connection done")

	tokenManager, err := auth.NewManager(cfg.Auth.JWT)
	if err != nil {
		logger.Fatal("token manager creation failed", zap.Error(err))
	}

	hasher, err := hash.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("password hasher creation failed", zap.Error(err))
	}

	queueClient := asynq.NewClient(asynqserver.RedisOptions(cfg.Cache))
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Error("queue client close failed", zap.Error(err))
		}
	}()
	client.Set(queueClient)

	repos := repository.NewRepositories(dbMySQL)
	services := service.NewServices(service.Deps{
		Repos:          repos,
		TokenManager:   tokenManager,
		Hasher:         hasher,
		OTPGenerator:   otp.NewGenerator(),
		TOTP:           otp.NewTOTP(),
		TOTPSetupCache: cache.NewTOTPSetupCache(redisClient),
		Dispatcher:     dispatcher.New(),
		Config:         cfg,
	})

	workers := worker.NewWorkers(worker.Deps{
		EmailProviders: buildEmailProviders(cfg),
		SMSProviders:   buildSMSProviders(cfg),
		Config:         cfg,
	})

	queueServer, queueMux := asynqserver.New(cfg.Cache, workers)
	go func() {
		if err := queueServer.Run(queueMux); err != nil {
			logger.Fatal("queue server run failed", zap.Error(err))
		}
	}()
	logger.Info("queue server started")

	handlers := apiHttp.NewHandlers(services, tokenManager, cfg)

	srv := server.NewServer(cfg, handlers.Init(cfg))
	go func() {
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server run failed", zap.Error(err))
		}
	}()
	logger.Info("http server started", zap.String("port", cfg.HttpServer.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	const timeout = 5 * time.Second

	ctx, shutdown := context.WithTimeout(context.Background(), timeout)
	defer shutdown()

	if err := srv.Stop(ctx); err != nil {
		logger.Error("http server stop failed", zap.Error(err))
	}

	queueServer.Shutdown()

	logger.Info("app stopped")
}

// buildEmailProviders assembles the delivery chain in configured order;
// unknown names are skipped with a warning so a config typo degrades to the
// next provider instead of killing startup.
func buildEmailProviders(cfg *config.Config) []emailProvider.Sender {
	var providers []emailProvider.Sender

	for _, name := range cfg.Email.Providers {
		switch name {
		case "ses":
			sender, err := ses.NewSESSender(context.Background(), cfg.Email.AWSRegion, cfg.Email.From)
			if err != nil {
				logger.Warn("ses sender creation failed", zap.Error(err))
				continue
			}
			providers = append(providers, sender)
		case "smtp":
			sender, err := smtp.NewSMTPSender(cfg.Email.From, cfg.Email.SMTP.Pass,
				cfg.Email.SMTP.Host, cfg.Email.SMTP.Port)
			if err != nil {
				logger.Warn("smtp sender creation failed", zap.Error(err))
				continue
			}
			providers = append(providers, sender)
		case "dev":
			providers = append(providers, emailDev.NewDevSender())
		default:
			logger.Warn("unknown email provider", zap.String("provider", name))
		}
	}

	if len(providers) == 0 {
		logger.Warn("no email providers configured, falling back to dev sink")
		providers = append(providers, emailDev.NewDevSender())
	}

	return providers
}

func buildSMSProviders(cfg *config.Config) []smsProvider.Sender {
	var providers []smsProvider.Sender

	for _, name := range cfg.SMS.Providers {
		switch name {
		case "sns":
			sender, err := sns.NewSNSSender(context.Background(), cfg.SMS.AWSRegion)
			if err != nil {
				logger.Warn("sns sender creation failed", zap.Error(err))
				continue
			}
			providers = append(providers, sender)
		case "brevo":
			sender, err := brevo.NewBrevoSender(cfg.SMS.BrevoAPIKey, cfg.SMS.BrevoSender)
			if err != nil {
				logger.Warn("brevo sender creation failed", zap.Error(err))
				continue
			}
			providers = append(providers, sender)
		case "dev":
			providers = append(providers, smsDev.NewDevSender())
		default:
			logger.Warn("unknown sms provider", zap.String("provider", name))
		}
	}

	if len(providers) == 0 {
		logger.Warn("no sms providers configured, falling back to dev sink")
		providers = append(providers, smsDev.NewDevSender())
	}

	return providers
}
