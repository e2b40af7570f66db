package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"leadflow/config"
	"leadflow/notify"
)

// CampaignWebhookAuth checks the shared-secret header the campaign provider
// sends with every delivery.
func CampaignWebhookAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("X-Webhook-Token")
		if token == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(config.AppConfig.WebhookToken)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid webhook token",
			})
		}
		return c.Next()
	}
}

// LineWebhookAuth verifies the X-Line-Signature HMAC over the raw body before
// any parsing happens.
func LineWebhookAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		signature := c.Get("X-Line-Signature")
		if signature == "" ||
			!notify.ValidateSignature(config.AppConfig.Line.ChannelSecret, signature, c.Body()) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}
		return c.Next()
	}
}
