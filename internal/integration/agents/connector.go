package agents

import (
	"context"
	"net/http"
	"time"

	"github.com/avara-hq/avara-backend/internal/config"
	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/avara-hq/avara-backend/internal/integration/common"
	pkghttp "github.com/avara-hq/avara-backend/pkg/http"
	"github.com/golang-jwt/jwt/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const triggerTokenTTL = 2 * time.Minute

// Connector fires generation triggers at the downstream agent APIs.
// Triggers are fire-and-forget: failures are logged and swallowed, an
// unreachable agent never fails the orchestrator request that fired it.
type Connector struct {
	config    config.AgentsConnectorConfig
	auth      config.AuthConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.AgentsConnectorConfig,
	auth config.AuthConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		auth:      auth,
		logger:    logger,
	}
}

type generatePayload struct {
	ProjectID string `json:"projectId"`
}

type analysePayload struct {
	ProjectID string           `json:"projectId"`
	Scope     entity.RiskScope `json:"scope"`
}

// TriggerCoreBusiness asks the core business agent to regenerate its document.
func (c *Connector) TriggerCoreBusiness(ctx context.Context, userID, projectID string) {
	c.fire(ctx, "core_business", c.config.CoreBusinessURL, userID, generatePayload{ProjectID: projectID})
}

// TriggerRisk asks the risk agent to analyse one scope.
func (c *Connector) TriggerRisk(ctx context.Context, userID, projectID string, scope entity.RiskScope) {
	c.fire(ctx, "risk", c.config.RiskURL, userID, analysePayload{ProjectID: projectID, Scope: scope})
}

// TriggerRoadmap asks the roadmap agent to regenerate its document.
func (c *Connector) TriggerRoadmap(ctx context.Context, userID, projectID string) {
	c.fire(ctx, "roadmap", c.config.RoadmapURL, userID, generatePayload{ProjectID: projectID})
}

// TriggerTask asks the task agent to regenerate its document.
func (c *Connector) TriggerTask(ctx context.Context, userID, projectID string) {
	c.fire(ctx, "task", c.config.TaskURL, userID, generatePayload{ProjectID: projectID})
}

// mintToken signs a short-lived bearer token carrying the founder as
// subject, so the triggered agent reads and writes the founder's
// documents rather than a service identity's.
func (c *Connector) mintToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    c.auth.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(triggerTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.auth.JWTSecret))
}

func (c *Connector) fire(ctx context.Context, agent, url, userID string, payload any) {
	ctxzap.Debug(ctx, "firing agent trigger",
		zap.String("agent", agent),
		zap.String("url", url),
	)

	token, err := c.mintToken(userID)
	if err != nil {
		ctxzap.Error(ctx, "agent trigger token signing failed",
			zap.String("agent", agent),
			zap.Error(err),
		)
		return
	}

	opts := []pkghttp.RequestOpt{
		pkghttp.WithURL(url),
		pkghttp.WithHeader("Authorization", "Bearer "+token),
	}

	if err := c.connector.DoRequest(ctx, http.MethodPost, "", payload, nil, opts...); err != nil {
		ctxzap.Error(ctx, "agent trigger failed",
			zap.String("agent", agent),
			zap.Error(err),
		)
		return
	}

	ctxzap.Info(ctx, "agent trigger sent", zap.String("agent", agent))
}
