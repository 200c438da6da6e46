package cart

import (
	"github.com/fjod/donation_cart/internal/domain"
	"go.uber.org/zap"
)

// Notifier is told about adds and rejected adds so a UI can show a toast.
type Notifier interface {
	ItemAdded(sessionID string, item domain.LineItem)
	AddRejected(sessionID string, appealID string, err error)
}

type nopNotifier struct{}

func (nopNotifier) ItemAdded(string, domain.LineItem) {}
func (nopNotifier) AddRejected(string, string, error) {}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ItemAdded(sessionID string, item domain.LineItem) {
	n.logger.Info("donation added to cart",
		zap.String("session_id", sessionID),
		zap.String("appeal_id", item.AppealID),
		zap.String("amount", item.Amount.String()),
		zap.String("frequency", string(item.Frequency)),
		zap.Int("quantity", item.Quantity),
	)
}

func (n *LogNotifier) AddRejected(sessionID string, appealID string, err error) {
	n.logger.Warn("donation rejected",
		zap.String("session_id", sessionID),
		zap.String("appeal_id", appealID),
		zap.Error(err),
	)
}
