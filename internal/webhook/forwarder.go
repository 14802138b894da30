package webhook

import (
	"context"
	"encoding/json"
	"time"

	"gamehub-backend/internal/config"
	"gamehub-backend/internal/constants"
	"gamehub-backend/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Forwarder posts membership-change events to the configured
// integration endpoint. Delivery is best-effort: a failed post is
// logged and dropped, since the membership rows themselves are the
// source of truth and the next sync re-derives them.
type Forwarder struct {
	url    string
	client *fasthttp.Client
	logger zerolog.Logger
}

func NewForwarder(cfg *config.Config, logger zerolog.Logger) *Forwarder {
	return &Forwarder{
		url: cfg.WebhookURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.WebhookTimeout,
			WriteTimeout:        constants.WebhookTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

// Enabled reports whether an endpoint is configured.
func (f *Forwarder) Enabled() bool {
	return f.url != ""
}

func (f *Forwarder) Deliver(ctx context.Context, ev domain.MembershipEvent) {
	if !f.Enabled() {
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to encode membership event")
		return
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(f.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := f.client.DoTimeout(req, resp, constants.WebhookTimeout); err != nil {
		f.logger.Warn().
			Err(err).
			Str("type", ev.Type).
			Str("group_id", ev.GroupID).
			Str("player_id", ev.PlayerID).
			Msg("membership event delivery failed")
		return
	}

	if resp.StatusCode() >= 300 {
		f.logger.Warn().
			Int("status", resp.StatusCode()).
			Str("type", ev.Type).
			Str("group_id", ev.GroupID).
			Msg("membership event rejected by endpoint")
		return
	}

	f.logger.Debug().
		Str("type", ev.Type).
		Str("group_id", ev.GroupID).
		Str("player_id", ev.PlayerID).
		Msg("membership event delivered")
}
