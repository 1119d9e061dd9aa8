package email

import (
	"context"

	"go.uber.org/zap"
)

type Kind string

const KindVerification Kind = "verification"

// Message is one queued outbound email.
type Message struct {
	ID      string
	Kind    Kind
	To      string
	Token   string
	Attempt int
}

// Sender delivers a single message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.SugaredLogger
}

func NewLogSender(logger *zap.SugaredLogger) *LogSender {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Infow("email sent",
		"id", m.ID,
		"kind", m.Kind,
		"to", m.To,
		"attempt", m.Attempt,
	)
	return nil
}
