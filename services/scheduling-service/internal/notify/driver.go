package notify

import (
	"context"
	"fmt"
	"strings"
)

type Config struct {
	Driver       string
	WebhookURL   string
	WebhookToken string
	AWSRegion    string
	SNSSenderID  string
}

// New picks the sender named by cfg.Driver: "sns", "webhook" or "noop"
// (the default).
func New(ctx context.Context, cfg Config) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "noop":
		return NoopSender{}, nil
	case "webhook":
		return NewWebhookSender(cfg.WebhookURL, cfg.WebhookToken), nil
	case "sns":
		return NewSNSSenderFromRegion(ctx, cfg.AWSRegion, cfg.SNSSenderID)
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.Driver)
	}
}
