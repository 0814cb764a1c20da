package insights

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/avara-hq/avara-backend/internal/config"
	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/avara-hq/avara-backend/internal/integration/common"
	pkghttp "github.com/avara-hq/avara-backend/pkg/http"
	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector talks to the intake enrichment service. The service is
// advisory: callers must stay correct when every method errors.
type Connector struct {
	config    config.InsightsConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.InsightsConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// EnrichIntake scores the intake and proposes personas and questions.
func (c *Connector) EnrichIntake(ctx context.Context, intake entity.Intake) (*entity.IntakeInsights, error) {
	ctxzap.Info(ctx, "enriching intake via insights service")

	var result entity.IntakeInsights
	if err := c.doWithRetry(ctx, c.config.IntakeEndpoint, intake, &result); err != nil {
		return nil, fmt.Errorf("enrich intake failed: %w", err)
	}

	return &result, nil
}

// AssessReliability runs the critic over a freshly generated pack.
func (c *Connector) AssessReliability(ctx context.Context, req *entity.ReliabilityRequest) (*entity.Reliability, error) {
	ctxzap.Info(ctx, "assessing pack reliability")

	var result entity.Reliability
	if err := c.doWithRetry(ctx, c.config.ReliabilityEndpoint, req, &result); err != nil {
		return nil, fmt.Errorf("assess reliability failed: %w", err)
	}

	return &result, nil
}

func (c *Connector) doWithRetry(ctx context.Context, endpoint string, reqBody, respBody any) error {
	return c.config.Retry.Do(ctx, func() error {
		err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, reqBody, respBody)
		if err == nil {
			return nil
		}

		var httpErr *pkghttp.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode < http.StatusInternalServerError {
			return retry.Unrecoverable(err)
		}

		return err
	})
}
