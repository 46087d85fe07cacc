package services

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/mesafacil/reservas-backend/internal/models"
)

// Messenger sends outbound WhatsApp messages on behalf of a tenant.
type Messenger interface {
	SendWhatsApp(r *models.Restaurant, to, body string) error
}

// TwilioMessenger sends through the Twilio REST API. Clients are cached
// per account SID because tenants may bring their own credentials.
type TwilioMessenger struct {
	mu      sync.Mutex
	clients map[string]*twilio.RestClient
}

// NewTwilioMessenger returns a messenger with an empty client cache.
func NewTwilioMessenger() *TwilioMessenger {
	return &TwilioMessenger{clients: make(map[string]*twilio.RestClient)}
}

func (t *TwilioMessenger) SendWhatsApp(r *models.Restaurant, to, body string) error {
	sid, token, from := credentials(r)
	if sid == "" || token == "" || from == "" {
		return fmt.Errorf("twilio credentials missing for restaurant %s", r.ID)
	}

	client := t.clientFor(sid, token)

	params := &api.CreateMessageParams{}
	params.SetTo(whatsAppAddr(to))
	params.SetFrom(whatsAppAddr(from))
	params.SetBody(body)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	if resp.Sid != nil {
		log.Printf("📤 WhatsApp sent to %s (sid %s)", to, *resp.Sid)
	}
	return nil
}

func (t *TwilioMessenger) clientFor(sid, token string) *twilio.RestClient {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.clients[sid]; ok {
		return c
	}
	c := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: sid,
		Password: token,
	})
	t.clients[sid] = c
	return c
}

// credentials prefers the tenant's own Twilio account and falls back to
// the shared one from the environment.
func credentials(r *models.Restaurant) (sid, token, from string) {
	sid = r.TwilioAccountSID
	token = r.TwilioAuthToken
	from = r.TwilioPhoneNumber
	if sid == "" {
		sid = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if token == "" {
		token = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if from == "" {
		from = os.Getenv("TWILIO_PHONE_NUMBER")
	}
	return sid, token, from
}

func whatsAppAddr(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
