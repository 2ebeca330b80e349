package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/medconsulta/agenda/internal/config"
	"github.com/medconsulta/agenda/internal/notify"
	"github.com/medconsulta/agenda/pkg/logging"
)

// BuildPgxPool connects to Postgres or returns an error. A nil return with a
// nil error means no database is configured.
func BuildPgxPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, availability cache disabled", "error", err)
		return nil
	}
	return client
}

// LoadAWSConfig centralizes AWS SDK initialization so the API and the worker
// share the same LocalStack/production wiring.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}

	if endpoint := cfg.AWSEndpointOverride; endpoint != "" {
		awsCfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
			func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
				switch service {
				case sqs.ServiceID, sesv2.ServiceID:
					return aws.Endpoint{
						URL:           endpoint,
						PartitionID:   "aws",
						SigningRegion: cfg.AWSRegion,
					}, nil
				default:
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				}
			},
		)
	}

	return awsCfg, nil
}

// BuildEmailSender picks the configured email provider. Falls back to the
// stub sender when real delivery is switched off or nothing usable is
// configured.
func BuildEmailSender(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.NotifySendEmail {
		logger.Info("email delivery disabled, using stub sender")
		return notify.NewStubEmailSender(logger)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddr,
			FromName:  cfg.EmailFromName,
		}, logger); sender != nil {
			logger.Info("sendgrid email sender initialized")
			return sender
		}
		logger.Warn("sendgrid selected but not configured, emails disabled")
	case "ses":
		if cfg.EmailFromAddr != "" {
			logger.Info("SES email sender initialized")
			return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
				FromEmail: cfg.EmailFromAddr,
				FromName:  cfg.EmailFromName,
			}, logger)
		}
		logger.Warn("SES selected but EMAIL_FROM_ADDR not set, emails disabled")
	}
	return notify.NewStubEmailSender(logger)
}
