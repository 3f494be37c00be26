package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/baja-build-leads/internal/assessment"
	appconfig "github.com/wolfman30/baja-build-leads/internal/config"
	"github.com/wolfman30/baja-build-leads/internal/events"
	"github.com/wolfman30/baja-build-leads/internal/guide"
	"github.com/wolfman30/baja-build-leads/internal/leadmagnet"
	"github.com/wolfman30/baja-build-leads/internal/leads"
	"github.com/wolfman30/baja-build-leads/internal/notify"
	"github.com/wolfman30/baja-build-leads/pkg/logging"
)

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
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// AWSClients holds the SDK clients this deployment needs. A client is only
// built when configuration asks for the feature it serves.
type AWSClients struct {
	DynamoDB *dynamodb.Client
	SQS      *sqs.Client
	S3       *s3.Client
	SES      *sesv2.Client
}

// BuildAWSClients creates the clients required by cfg from awsCfg.
func BuildAWSClients(awsCfg aws.Config, cfg *appconfig.Config) AWSClients {
	var clients AWSClients
	if cfg.LeadStore == "dynamodb" {
		clients.DynamoDB = dynamodb.NewFromConfig(awsCfg)
	}
	if cfg.LeadQueueURL != "" {
		clients.SQS = sqs.NewFromConfig(awsCfg)
	}
	if cfg.GuideBucket != "" {
		clients.S3 = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		})
	}
	if strings.EqualFold(cfg.EmailProvider, "ses") {
		clients.SES = sesv2.NewFromConfig(awsCfg)
	}
	return clients
}

// BuildLeadRepository picks the lead store named by LEAD_STORE.
func BuildLeadRepository(cfg *appconfig.Config, pool *pgxpool.Pool, ddb *dynamodb.Client) (leads.Repository, error) {
	switch cfg.LeadStore {
	case "", "postgres":
		if pool == nil {
			return nil, fmt.Errorf("bootstrap: postgres lead store requires DATABASE_URL")
		}
		return leads.NewPostgresRepository(pool), nil
	case "dynamodb":
		if ddb == nil {
			return nil, fmt.Errorf("bootstrap: dynamodb lead store requires an AWS client")
		}
		return leads.NewDynamoRepository(ddb, cfg.LeadsTable), nil
	case "memory":
		return leads.NewInMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown LEAD_STORE %q", cfg.LeadStore)
	}
}

// BuildEventRecorder writes lead_events rows when a database is available and
// falls back to structured logs otherwise.
func BuildEventRecorder(db *sql.DB, logger *logging.Logger) leads.EventRecorder {
	if db == nil {
		return events.NewLogRecorder(logger)
	}
	return events.NewSQLStore(db)
}

// BuildEmailSender selects the provider named by EMAIL_PROVIDER, falling back
// to the stub when the chosen provider is not configured.
func BuildEmailSender(cfg *appconfig.Config, ses *sesv2.Client, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty; using stub email sender")
	case "ses":
		if sender := notify.NewSESSender(ses, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("ses selected but no client available; using stub email sender")
	}
	return notify.NewStubEmailSender(logger)
}

// BuildNotifiers returns the enabled downstream sinks for new leads.
func BuildNotifiers(cfg *appconfig.Config, clients AWSClients, logger *logging.Logger) []leads.Notifier {
	var out []leads.Notifier
	if n := notify.NewWebhookNotifier(cfg.LeadWebhookURL, cfg.LeadWebhookTimeout); n != nil {
		out = append(out, n)
	}
	if clients.SQS != nil {
		if p := notify.NewSQSPublisher(clients.SQS, cfg.LeadQueueURL); p != nil {
			out = append(out, p)
		}
	}
	if n := notify.NewEmailAlertNotifier(BuildEmailSender(cfg, clients.SES, logger), cfg.SalesNotifyEmail); n != nil {
		out = append(out, n)
	}
	return out
}

// BuildGuideLinker returns nil when no guide bucket is configured.
func BuildGuideLinker(cfg *appconfig.Config, client *s3.Client) leadmagnet.GuideLinker {
	if cfg.GuideBucket == "" || client == nil {
		return nil
	}
	return guide.NewLinker(s3.NewPresignClient(client), cfg.GuideBucket, cfg.GuideKey, cfg.GuideURLTTL)
}

// BuildAssessmentStore keeps sessions in Redis when available and in process
// memory otherwise.
func BuildAssessmentStore(rdb *redis.Client, cfg *appconfig.Config, logger *logging.Logger) assessment.Store {
	if rdb == nil {
		if logger != nil {
			logger.Warn("redis not configured; assessment sessions kept in memory")
		}
		return assessment.NewMemoryStore()
	}
	return assessment.NewRedisStore(rdb, cfg.AssessmentSessionTTL)
}
