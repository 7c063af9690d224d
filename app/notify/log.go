package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender records messages in the log instead of delivering them. It is
// used when no SMTP host is configured.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	logrus.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("Mail delivery disabled, message not sent")
	logrus.WithField("to", to).Debug(body)
	return nil
}
