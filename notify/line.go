package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/sony/gobreaker"

	"leadflow/models"
	"leadflow/utils"
)

// Notifier delivers sales-team messages. Best effort at the call site:
// failures are dead-lettered, never propagated to the webhook sender.
type Notifier interface {
	NotifyNewLead(ctx context.Context, lead *models.Lead) error
	Reply(ctx context.Context, replyToken, text string) error
	Push(ctx context.Context, to, text string) error
}

// LineNotifier pushes lead cards and postback replies through the LINE
// Messaging API, behind a circuit breaker.
type LineNotifier struct {
	client  *messaging_api.MessagingApiAPI
	groupID string
	breaker *gobreaker.CircuitBreaker
}

func NewLineNotifier(channelToken, salesGroupID string) (*LineNotifier, error) {
	if channelToken == "" {
		return nil, fmt.Errorf("LINE channel token is required")
	}
	client, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE client: %w", err)
	}
	return &LineNotifier{
		client:  client,
		groupID: salesGroupID,
		breaker: utils.NewBreaker("line"),
	}, nil
}

// NotifyNewLead pushes a claim card for a freshly persisted lead to the sales
// group. The postback data carries both the canonical UID and the legacy row
// ordinal so older clients keep working.
func (n *LineNotifier) NotifyNewLead(ctx context.Context, lead *models.Lead) error {
	title := lead.Company
	if title == "" {
		title = lead.Email
	}

	body := fmt.Sprintf("%s\nIndustry: %s\nConfidence: %d/100", lead.Email, lead.Industry, lead.Confidence)
	if lead.TalkingPoint != "" {
		body += "\n" + lead.TalkingPoint
	}
	// ButtonsTemplate text is capped at 160 characters.
	if len(body) > 160 {
		body = body[:157] + "..."
	}

	card := &messaging_api.TemplateMessage{
		AltText: fmt.Sprintf("New lead: %s", title),
		Template: &messaging_api.ButtonsTemplate{
			Title: truncate(title, 40),
			Text:  body,
			Actions: []messaging_api.ActionInterface{
				&messaging_api.PostbackAction{
					Label:       "Claim",
					Data:        fmt.Sprintf("action=claim&lead_id=%s&row_id=%d", lead.LeadUID, lead.ID),
					DisplayText: fmt.Sprintf("Claiming %s", title),
				},
			},
		},
	}

	return n.send(ctx, func() error {
		_, err := n.client.PushMessage(&messaging_api.PushMessageRequest{
			To:       n.groupID,
			Messages: []messaging_api.MessageInterface{card},
		}, "")
		return err
	})
}

// Reply answers a postback with a text message via its reply token.
func (n *LineNotifier) Reply(ctx context.Context, replyToken, text string) error {
	return n.send(ctx, func() error {
		_, err := n.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
			ReplyToken: replyToken,
			Messages: []messaging_api.MessageInterface{
				&messaging_api.TextMessage{Text: text},
			},
		})
		return err
	})
}

// Push sends a plain text message to an arbitrary recipient; the dead-letter
// worker uses it for replays.
func (n *LineNotifier) Push(ctx context.Context, to, text string) error {
	return n.send(ctx, func() error {
		_, err := n.client.PushMessage(&messaging_api.PushMessageRequest{
			To: to,
			Messages: []messaging_api.MessageInterface{
				&messaging_api.TextMessage{Text: text},
			},
		}, "")
		return err
	})
}

func (n *LineNotifier) send(ctx context.Context, call func() error) error {
	return utils.RetryWithBreaker(ctx, n.breaker, func(ctx context.Context) error {
		if err := call(); err != nil {
			return utils.Transient("line send", err)
		}
		return nil
	})
}

// ValidateSignature checks the X-Line-Signature header: base64 of the
// HMAC-SHA256 of the raw request body with the channel secret.
func ValidateSignature(channelSecret, signature string, body []byte) bool {
	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return hmac.Equal(decoded, mac.Sum(nil))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
