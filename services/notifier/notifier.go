package notifier

import (
	"context"
	"errors"
	"fmt"

	"sjsage522/stockwatcher/config"
	"sjsage522/stockwatcher/logger"
	apperrors "sjsage522/stockwatcher/pkg/errors"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the part of the Twilio API the notifier uses
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// WhatsAppNotifier sends messages through Twilio's WhatsApp channel
type WhatsAppNotifier struct {
	api  messageCreator
	from string
	to   string
	log  *logger.Logger
}

// NewWhatsAppNotifier creates a notifier from validated Twilio credentials
func NewWhatsAppNotifier(cfg config.TwilioConfig) (*WhatsAppNotifier, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.WhatsAppTo == "" {
		return nil, apperrors.NewConfiguration("twilio account sid, auth token and destination number are required", nil)
	}

	from := cfg.WhatsAppFrom
	if from == "" {
		from = config.DefaultWhatsAppFrom
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newWithAPI(client.Api, from, cfg.WhatsAppTo), nil
}

func newWithAPI(api messageCreator, from, to string) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		api:  api,
		from: from,
		to:   to,
		log:  logger.ForNotifier(),
	}
}

// Notify sends message to the configured number
func (n *WhatsAppNotifier) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewNotification("whatsapp", "notification canceled", err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(message)

	resp, err := n.api.CreateMessage(params)
	if err != nil {
		return apperrors.NewNotification("whatsapp", "failed to send WhatsApp message", err)
	}
	if resp == nil {
		return apperrors.NewNotification("whatsapp", "empty response from Twilio", errors.New("nil message"))
	}

	event := n.log.Debug()
	if resp.Sid != nil {
		event = event.Str("sid", *resp.Sid)
	}
	if resp.Status != nil {
		event = event.Str("status", fmt.Sprint(*resp.Status))
	}
	event.Msg("WhatsApp message queued")
	return nil
}
