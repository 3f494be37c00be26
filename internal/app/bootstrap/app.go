package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/baja-build-leads/internal/api/router"
	"github.com/wolfman30/baja-build-leads/internal/assessment"
	appconfig "github.com/wolfman30/baja-build-leads/internal/config"
	"github.com/wolfman30/baja-build-leads/internal/leadmagnet"
	"github.com/wolfman30/baja-build-leads/internal/leads"
	"github.com/wolfman30/baja-build-leads/internal/observability/metrics"
	"github.com/wolfman30/baja-build-leads/pkg/logging"
)

// Deps are the long-lived connections a process opens before building the
// HTTP surface. Any of them may be nil.
type Deps struct {
	Pool           *pgxpool.Pool
	EventsDB       *sql.DB
	Redis          *redis.Client
	AWS            AWSClients
	Metrics        *metrics.LeadMetrics
	MetricsHandler http.Handler
}

// BuildHTTPHandler assembles repositories, the ingestion service and the
// router. Both the long-running server and the Lambda use it.
func BuildHTTPHandler(cfg *appconfig.Config, deps Deps, logger *logging.Logger) (http.Handler, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repo, err := BuildLeadRepository(cfg, deps.Pool, deps.AWS.DynamoDB)
	if err != nil {
		return nil, err
	}

	notifiers := BuildNotifiers(cfg, deps.AWS, logger)
	svc := leads.NewService(repo, logger,
		leads.WithEventRecorder(BuildEventRecorder(deps.EventsDB, logger)),
		leads.WithNotifiers(notifiers...),
		leads.WithMetrics(deps.Metrics),
		leads.WithDefaults(leads.Defaults{TenantID: cfg.TenantID, LandingPageID: cfg.LandingPageID}),
		leads.WithNotifyTimeout(cfg.NotifyTimeout),
	)
	logger.Info("lead ingestion configured", "store", cfg.LeadStore, "notifiers", len(notifiers))

	return router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(svc, repo, logger),
		LeadMagnetHandler:  leadmagnet.NewHandler(svc, leadmagnet.NewGuard(leadmagnet.DefaultMaxAttempts, leadmagnet.DefaultWindow), BuildGuideLinker(cfg, deps.AWS.S3), deps.Metrics, logger),
		AssessmentHandler:  assessment.NewHandler(BuildAssessmentStore(deps.Redis, cfg, logger), svc, deps.Metrics, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     deps.MetricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		HealthChecks:       healthChecks(deps),
	}), nil
}

func healthChecks(deps Deps) map[string]router.HealthCheck {
	checks := make(map[string]router.HealthCheck)
	if deps.Pool != nil {
		checks["postgres"] = func(ctx context.Context) error {
			if err := deps.Pool.Ping(ctx); err != nil {
				return fmt.Errorf("postgres ping: %w", err)
			}
			return nil
		}
	}
	if deps.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
