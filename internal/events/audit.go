package events

import (
	"context"

	"github.com/ecostore/apiserver/internal/mq"
	"github.com/sirupsen/logrus"
)

// AuditHandler logs every event it receives. Undecodable messages are logged
// and acknowledged so a poison message is not redelivered forever.
func AuditHandler(logger logrus.FieldLogger) mq.Handler {
	return func(_ context.Context, msg mq.Message) error {
		e, err := Decode(msg)
		if err != nil {
			logger.WithError(err).WithField("message_id", msg.ID).Warn("dropping malformed event")
			return nil
		}

		fields := logrus.Fields{
			"event_id":    e.ID,
			"event_type":  e.Type,
			"user_id":     e.UserID,
			"email":       e.Email,
			"role":        e.Role,
			"occurred_at": e.OccurredAt,
		}
		if !msg.PublishedAt.IsZero() {
			fields["published_at"] = msg.PublishedAt
		}
		logger.WithFields(fields).Info("audit event")
		return nil
	}
}
