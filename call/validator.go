package call

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/twilio/twilio-go/client"
)

const signatureHeader = "X-Twilio-Signature"

// SignatureMiddleware rejects webhook requests whose X-Twilio-Signature
// does not match. publicURL returns the base URL Twilio was given, since
// the URL Twilio signs is the public one, not the one behind the tunnel.
func SignatureMiddleware(authToken string, publicURL func() string) fiber.Handler {
	validator := client.NewRequestValidator(authToken)
	return func(c *fiber.Ctx) error {
		params := map[string]string{}
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			params[string(key)] = string(value)
		})

		url := publicURL() + c.OriginalURL()
		if !validator.Validate(url, params, c.Get(signatureHeader)) {
			slog.Warn("rejected webhook with bad signature", "component", "call", "url", url)
			return c.SendStatus(fiber.StatusForbidden)
		}
		return c.Next()
	}
}
