package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info" env-description:"logging level, debug, info, etc."`

	HttpServer       HttpServer
	Database         Database
	Limiter          Limiter
	Auth             AuthConfig
	CodeVerification CodeVerificationConfig
	Email            EmailConfig
	SMS              SMSConfig
	Cache            Cache
}

type HttpServer struct {
	Port           string        `env:"HTTP_PORT" env-default:"8080"`
	Timeout        time.Duration `env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	SwaggerEnabled bool          `env:"HTTP_SWAGGER_ENABLED" env-default:"false"`
	CORSOrigins    []string      `env:"HTTP_CORS_ORIGINS" env-default:"http://localhost:3000"`
}

type Database struct {
	Net                string        `env:"DB_NET" env-default:"tcp"`
	Server             string        `env:"DB_SERVER" env-required:"true"`
	DBName             string        `env:"DB_NAME" env-required:"true"`
	User               string        `env:"DB_USER" env-required:"true"`
	Password           string        `env:"DB_PASSWORD" env-required:"true"`
	TimeZone           string        `env:"DB_TIMEZONE"`
	Timeout            time.Duration `env:"DB_TIMEOUT" env-default:"2s"`
	MaxIdleConnections int           `env:"DB_MAX_IDLE_CONNECTIONS" env-default:"40"`
	MaxOpenConnections int           `env:"DB_MAX_OPEN_CONNECTIONS" env-default:"40"`
}

type Limiter struct {
	RPS   int           `env:"LIMITER_RPS" env-default:"10"`
	Burst int           `env:"LIMITER_BURST" env-default:"20"`
	TTL   time.Duration `env:"LIMITER_TTL" env-default:"10m"`
}

type AuthConfig struct {
	JWT            JWTConfig
	BcryptCost     int           `env:"AUTH_BCRYPT_COST" env-default:"10"`
	BrandName      string        `env:"AUTH_BRAND_NAME" env-default:"Joblo AI"`
	TOTPSetupTTL   time.Duration `env:"AUTH_TOTP_SETUP_TTL" env-default:"10m"`
	TOTPDriftSteps int           `env:"AUTH_TOTP_DRIFT_STEPS" env-default:"2"`
}

type JWTConfig struct {
	KeyDir          string        `env:"JWT_KEY_DIR" env-default:"./keys"`
	Passphrase      string        `env:"JWT_PASSPHRASE" env-required:"true" env-description:"passphrase protecting the rsa private key"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL" env-default:"168h"`
}

type CodeVerificationConfig struct {
	CodeLength            int           `env:"CODE_VERIFICATION_CODE_LENGTH" env-default:"4"`
	LinkTokenLength       int           `env:"CODE_VERIFICATION_LINK_TOKEN_LENGTH" env-default:"50"`
	MaxRetryAttempts      int           `env:"CODE_VERIFICATION_MAX_RETRY_ATTEMPTS" env-default:"5"`
	Expiration            time.Duration `env:"CODE_VERIFICATION_EXPIRATION" env-default:"10m"`
	PassedCodeExpiration  time.Duration `env:"CODE_VERIFICATION_PASSED_CODE_EXPIRATION" env-default:"10m"`
	ResendBackoff         []int         `env:"CODE_VERIFICATION_RESEND_BACKOFF" env-default:"30,60,120,300" env-description:"ordered backoff schedule in seconds"`
	ResendLimitInSession  int           `env:"CODE_VERIFICATION_RESEND_LIMIT_IN_SESSION" env-default:"5"`
	ResendSessionDuration time.Duration `env:"CODE_VERIFICATION_RESEND_SESSION_DURATION" env-default:"30m"`
}

type EmailConfig struct {
	Providers []string `env:"EMAIL_PROVIDERS" env-default:"dev" env-description:"ordered provider chain: ses, smtp, dev"`
	From      string   `env:"EMAIL_FROM" env-default:"no-reply@joblo.ai"`
	AWSRegion string   `env:"AWS_REGION" env-default:"us-east-1"`
	SMTP      SMTPConfig
}

type SMTPConfig struct {
	Host string `env:"SMTP_HOST"`
	Port int    `env:"SMTP_PORT" env-default:"587"`
	User string `env:"SMTP_USER"`
	Pass string `env:"SMTP_PASS"`
}

type SMSConfig struct {
	Providers   []string `env:"SMS_PROVIDERS" env-default:"dev" env-description:"ordered provider chain: sns, brevo, dev"`
	AWSRegion   string   `env:"AWS_REGION" env-default:"us-east-1"`
	BrevoAPIKey string   `env:"SMS_BREVO_API_KEY"`
	BrevoSender string   `env:"SMS_BREVO_SENDER"`
}

type Cache struct {
	Type  string `env:"REDIS_TYPE" env-required:"true" env-description:"specifies provider, one of redis/redisCluster"`
	Redis struct {
		Address  string `env:"REDIS_ADDR" env-default:"" env-description:"redis host:port single instance"`
		Password string `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize int    `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
	RedisCluster struct {
		Addresses []string `env:"REDIS_CLUSTER_ADDRS" env-default:"" env-description:"redis cluster nodes"`
		Password  string   `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize  int      `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
}

func MustLoad() *Config {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("cannot read config from environment: %s", err)
	}

	return &cfg
}
