package agents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avara-hq/avara-backend/internal/api/middleware"
	"github.com/avara-hq/avara-backend/internal/config"
	"github.com/avara-hq/avara-backend/internal/entity"
	"go.uber.org/zap"
)

func newTriggerTarget(t *testing.T, authCfg config.AuthConfig) (*httptest.Server, chan string) {
	t.Helper()
	seen := make(chan string, 4)
	handler := middleware.Auth(authCfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- middleware.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestTriggerAuthenticatesAsFounder(t *testing.T) {
	authCfg := config.AuthConfig{JWTSecret: "trigger-secret"}
	srv, seen := newTriggerTarget(t, authCfg)

	conn := NewConnector(config.AgentsConnectorConfig{
		CoreBusinessURL: srv.URL,
		RiskURL:         srv.URL,
	}, authCfg, zap.NewNop())

	conn.TriggerCoreBusiness(context.Background(), "founder-123", "proj-1")

	select {
	case got := <-seen:
		if got != "founder-123" {
			t.Fatalf("trigger ran as %q, want founder-123", got)
		}
	default:
		t.Fatal("trigger never reached the agent endpoint")
	}

	conn.TriggerRisk(context.Background(), "founder-123", "proj-1", entity.RiskScopeGTM)

	select {
	case got := <-seen:
		if got != "founder-123" {
			t.Fatalf("risk trigger ran as %q, want founder-123", got)
		}
	default:
		t.Fatal("risk trigger never reached the agent endpoint")
	}
}

func TestTriggerTokenRespectsIssuer(t *testing.T) {
	authCfg := config.AuthConfig{JWTSecret: "trigger-secret", Issuer: "avara-backend"}
	srv, seen := newTriggerTarget(t, authCfg)

	conn := NewConnector(config.AgentsConnectorConfig{
		RoadmapURL: srv.URL,
	}, authCfg, zap.NewNop())

	conn.TriggerRoadmap(context.Background(), "founder-456", "proj-2")

	select {
	case got := <-seen:
		if got != "founder-456" {
			t.Fatalf("trigger ran as %q, want founder-456", got)
		}
	default:
		t.Fatal("trigger never passed issuer verification")
	}
}
