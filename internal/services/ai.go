package services

import (
	"context"
	"fmt"
	"strings"

	deepseek "github.com/cohesion-org/deepseek-go"
	"github.com/cohesion-org/deepseek-go/constants"

	"github.com/mesafacil/reservas-backend/internal/models"
)

// AIResponder answers questions the rule-based flow cannot, using a
// DeepSeek chat completion primed with the tenant's menu and info.
type AIResponder struct {
	client *deepseek.Client
}

// NewAIResponder returns nil when no API key is configured, which
// disables the fallback entirely.
func NewAIResponder(apiKey string) *AIResponder {
	if apiKey == "" {
		return nil
	}
	return &AIResponder{client: deepseek.NewClient(apiKey)}
}

func (a *AIResponder) Complete(ctx context.Context, r *models.Restaurant, question string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, &deepseek.ChatCompletionRequest{
		Model: deepseek.DeepSeekChat,
		Messages: []deepseek.ChatCompletionMessage{
			{Role: constants.ChatMessageRoleSystem, Content: systemPrompt(r)},
			{Role: constants.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("deepseek completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("deepseek completion: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// systemPrompt keeps the model on-topic and hands it whatever tenant
// facts are on file.
func systemPrompt(r *models.Restaurant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sos el asistente de WhatsApp del restaurante %s en Argentina. ", r.Name)
	b.WriteString("Respondé en español rioplatense, en dos o tres frases como máximo, sin inventar datos. ")
	b.WriteString("Si te preguntan por reservas, indicá que escriban la palabra 'reservar'. ")

	if r.Info != nil {
		if r.Info.Contact.Address != "" {
			fmt.Fprintf(&b, "Dirección: %s. ", r.Info.Contact.Address)
		}
		if r.Info.Contact.Phone != "" {
			fmt.Fprintf(&b, "Teléfono: %s. ", r.Info.Contact.Phone)
		}
		for day, hours := range r.Info.Hours {
			fmt.Fprintf(&b, "Horario %s: %s. ", day, hours)
		}
		for name, policy := range r.Info.Policies {
			fmt.Fprintf(&b, "Política %s: %s. ", name, policy)
		}
	}
	return b.String()
}
