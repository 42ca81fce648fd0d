package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const welcomeEmailTimeout = 5 * time.Second

// WelcomeDetails describes a freshly provisioned account for its welcome
// message.
type WelcomeDetails struct {
	DisplayName string
	Role        string
	LandingPath string
	BaseURL     string
}

// WelcomeEmail renders the subject and body for a newly provisioned account.
func WelcomeEmail(details WelcomeDetails) (string, string) {
	subject := "Your Rinkside account is ready"

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", details.DisplayName)
	body.WriteString("An account has been created for you on Rinkside")
	if details.Role != "" {
		fmt.Fprintf(&body, " with the %s role", details.Role)
	}
	body.WriteString(".\n\n")
	if details.BaseURL != "" {
		fmt.Fprintf(&body, "Sign in at %s%s to get started.\n", details.BaseURL, details.LandingPath)
	}
	body.WriteString("\nThe Rinkside team\n")

	return subject, body.String()
}

// SendWelcomeEmail sends the welcome email asynchronously. Delivery is best
// effort: a failure is logged and never affects the provisioning outcome.
func SendWelcomeEmail(ctx context.Context, client EmailSender, recipient string, details WelcomeDetails, logger *zerolog.Logger) {
	if client == nil {
		return
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return
	}

	subject, body := WelcomeEmail(details)

	go func() {
		sendCtx, cancel := newEmailContext(ctx, welcomeEmailTimeout)
		defer cancel()
		if sendCtx.Err() != nil {
			return
		}
		if err := client.Send(sendCtx, recipient, subject, body); err != nil && logger != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send welcome email")
		}
	}()
}
