package synthesis

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

type Connector struct {
	config    config.SynthConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.SynthConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Synthesize runs one synthesis pass. Core and refine_solution modes go
// to the core endpoint, downstream goes to the research endpoint. The
// response is returned raw; the normalizer owns validation.
func (c *Connector) Synthesize(ctx context.Context, req *entity.SynthesizeRequest) (entity.RawDocument, error) {
	ctxzap.Info(ctx, "running synthesis pass",
		zap.String("mode", string(req.Mode)),
		zap.Bool("gtm", req.GTM),
	)

	endpoint := c.config.CoreEndpoint
	if req.Mode == entity.SynthesisDownstream {
		endpoint = c.config.ResearchEndpoint
	}

	var raw entity.RawDocument
	if err := c.doWithRetry(ctx, endpoint, req, &raw); err != nil {
		return nil, fmt.Errorf("synthesis pass %s failed: %w", req.Mode, err)
	}

	ctxzap.Info(ctx, "synthesis pass completed", zap.String("mode", string(req.Mode)))

	return raw, nil
}

// SynthesizeAgentDoc produces a downstream agent document from a locked
// research doc.
func (c *Connector) SynthesizeAgentDoc(ctx context.Context, req *entity.AgentSynthesisRequest) (entity.RawDocument, error) {
	ctxzap.Info(ctx, "synthesizing agent document", zap.String("kind", string(req.Kind)))

	var raw entity.RawDocument
	if err := c.doWithRetry(ctx, c.config.AgentEndpoint, req, &raw); err != nil {
		return nil, fmt.Errorf("agent synthesis %s failed: %w", req.Kind, err)
	}

	return raw, nil
}

// SynthesizeRisks produces risk items for a single scope.
func (c *Connector) SynthesizeRisks(ctx context.Context, req *entity.RiskSynthesisRequest) (*entity.RiskSynthesisResult, error) {
	ctxzap.Info(ctx, "synthesizing risks", zap.String("scope", string(req.Scope)))

	var result entity.RiskSynthesisResult
	if err := c.doWithRetry(ctx, c.config.AgentEndpoint, req, &result); err != nil {
		return nil, fmt.Errorf("risk synthesis %s failed: %w", req.Scope, err)
	}

	return &result, nil
}

// ChatResearch sends one founder message against a research doc and
// returns the reply plus a partial patch.
func (c *Connector) ChatResearch(ctx context.Context, req *entity.ChatSynthesisRequest) (*entity.ResearchChatResult, error) {
	ctxzap.Info(ctx, "running research chat turn")

	var result entity.ResearchChatResult
	if err := c.doWithRetry(ctx, c.config.ChatEndpoint, req, &result); err != nil {
		return nil, fmt.Errorf("research chat failed: %w", err)
	}

	return &result, nil
}

// ChatIntake sends one founder message against a project context.
func (c *Connector) ChatIntake(ctx context.Context, req *entity.ChatSynthesisRequest) (*entity.IntakeChatResult, error) {
	ctxzap.Info(ctx, "running intake chat turn")

	var result entity.IntakeChatResult
	if err := c.doWithRetry(ctx, c.config.ChatEndpoint, req, &result); err != nil {
		return nil, fmt.Errorf("intake chat failed: %w", err)
	}

	return &result, nil
}

// doWithRetry retries transient failures only. Client errors from the
// synthesis service are final.
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
