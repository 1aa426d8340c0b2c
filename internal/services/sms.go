package services

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender delivers a text message to one phone number
type SMSSender interface {
	SendSMS(to, body string) error
}

type TwilioService struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioService(accountSID, authToken, from string) *TwilioService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioService{client: client, from: from}
}

func (s *TwilioService) SendSMS(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(NormalizePhone(to))
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send sms via twilio: %w", err)
	}
	return nil
}
