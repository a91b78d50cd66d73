package services

import (
	"context"
	"log/slog"
	"time"

	pubnub "github.com/pubnub/go/v7"

	"tourvista/config"
)

// Alerter notifies operators about payments that need manual attention,
// most importantly gateway-confirmed payments whose records failed to
// persist.
type Alerter interface {
	ReconciliationRequired(ctx context.Context, details map[string]any)
}

// PubNubAlerter publishes alerts to the operator channel. Publish
// failures are logged but never fail the calling operation.
type PubNubAlerter struct {
	pn      *pubnub.PubNub
	channel string
	logger  *slog.Logger
}

func NewPubNubAlerter(cfg *config.Config, logger *slog.Logger) *PubNubAlerter {
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId("tourvista-server"))
	pnCfg.PublishKey = cfg.PubNubPublishKey
	pnCfg.SubscribeKey = cfg.PubNubSubscribeKey
	if cfg.PubNubSecretKey != "" {
		pnCfg.SecretKey = cfg.PubNubSecretKey
	}

	return &PubNubAlerter{
		pn:      pubnub.NewPubNub(pnCfg),
		channel: cfg.AlertChannel,
		logger:  logger,
	}
}

func (a *PubNubAlerter) ReconciliationRequired(ctx context.Context, details map[string]any) {
	message := map[string]any{
		"type":        "reconciliation_required",
		"details":     details,
		"reported_at": time.Now().UTC().Format(time.RFC3339),
	}

	_, _, err := a.pn.Publish().
		Channel(a.channel).
		Message(message).
		Execute()
	if err != nil {
		a.logger.Error("publish reconciliation alert", "channel", a.channel, "err", err)
	}
}

// NoopAlerter is used when no PubNub keys are configured; the structured
// log line remains the only signal.
type NoopAlerter struct{}

func (NoopAlerter) ReconciliationRequired(ctx context.Context, details map[string]any) {}
