package offline

import (
	"log/slog"

	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/offline/worker"
	"github.com/sidlin0932/dht-sensor-monitor/internal/mqtt"
)

// RegisterPushHandler shows every message on the push topic as a worker
// notification. Call it before the subscriber connects.
func RegisterPushHandler(subscriber mqtt.PushSubscriber, w *worker.Worker, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	subscriber.SetMessageHandler(func(payload []byte) error {
		n := w.Push(payload)
		logger.Debug("push message delivered", "id", n.ID, "bytes", len(payload))
		return nil
	})
}
