package services

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/SundayYogurt/account_service/internal/dto"
	"github.com/SundayYogurt/account_service/internal/interfaces"
)

// publish sends a lifecycle event to the broker. Best effort: a broker
// outage must never fail the operation that triggered the event.
func publish(p interfaces.ProducerHandler, log *zap.Logger, ev dto.AccountEvent) {
	if p == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Warn("marshal event failed", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	if err := p.PublishMessage([]byte(ev.Type), payload); err != nil {
		log.Warn("publish event failed",
			zap.String("type", ev.Type),
			zap.Uint("account_id", ev.AccountID),
			zap.Error(err),
		)
	}
}
