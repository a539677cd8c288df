package service

import (
	"context"
	"time"

	"github.com/elitestore/backend/internal/logging"
	"github.com/elitestore/backend/internal/mykafka"
)

// publishEvent is best-effort: a broker outage must never fail the request
// that produced the event.
func publishEvent(ctx context.Context, p *mykafka.Producer, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", topic, "error", err)
	}
}
