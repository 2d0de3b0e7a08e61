package resource

import (
	"go.uber.org/zap"
)

// LogObserver writes every lifecycle event to a zap logger at debug level.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates an observer logging to l. A nil logger discards.
func NewLogObserver(l *zap.Logger) *LogObserver {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogObserver{logger: l}
}

func (o *LogObserver) OnHandleEvent(e Event) {
	o.logger.Debug("handle "+e.Type.String(),
		zap.Uint64("id", uint64(e.ID)),
		zap.String("kind", string(e.Kind)),
		zap.String("label", e.Label))
}
