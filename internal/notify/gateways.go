package notify

import (
	"context"
	"log"
)

// LogEmailGateway writes outbound mail to the process log. Used when no real
// mail relay is configured, typically in development.
type LogEmailGateway struct{}

func (LogEmailGateway) SendEmail(_ context.Context, to string, subject string, body string) error {
	log.Printf("[notify] email to=%s subject=%q\n%s", to, subject, body)
	return nil
}

type LogSMSGateway struct{}

func (LogSMSGateway) SendSMS(_ context.Context, to string, body string) error {
	log.Printf("[notify] sms to=%s body=%q", to, body)
	return nil
}
