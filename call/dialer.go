package call

import (
	"context"

	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/pkg/errors"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// CallCreator is the slice of the Twilio REST API the dialer uses.
// *openapi.ApiService satisfies it.
type CallCreator interface {
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
}

// Dialer starts outbound calls that Twilio connects to the answer webhook.
type Dialer struct {
	calls CallCreator
	from  string
	to    string
}

func NewDialer(cfg config.TwilioConfig) (*Dialer, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("twilio account sid and auth token are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return NewDialerWithCreator(client.Api, cfg.PhoneNumber, cfg.TargetNumber), nil
}

func NewDialerWithCreator(calls CallCreator, from, to string) *Dialer {
	return &Dialer{calls: calls, from: from, to: to}
}

// StartCall dials the configured target number and returns the call SID.
func (d *Dialer) StartCall(ctx context.Context, publicURL string) (string, error) {
	if d.to == "" {
		return "", errors.New("no target phone number configured")
	}
	if d.from == "" {
		return "", errors.New("no twilio phone number configured")
	}
	if publicURL == "" {
		return "", errors.New("public URL is not available yet")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateCallParams{}
	params.SetTo(d.to)
	params.SetFrom(d.from)
	params.SetUrl(publicURL + AnswerPath)
	params.SetMethod("POST")

	resp, err := d.calls.CreateCall(params)
	if err != nil {
		return "", errors.Wrap(err, "twilio create call")
	}
	if resp.Sid == nil {
		return "", errors.New("twilio returned a call without a sid")
	}
	return *resp.Sid, nil
}
