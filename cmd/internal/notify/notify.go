// Package notify delivers account notifications.
//
// Only confirmation messages exist today. LogSender writes them to the
// structured log (there is no SMTP integration); Async wraps any Sender so the
// request path never waits on delivery.
package notify

import (
	"context"
	"net/url"
	"strings"
)

// ConfirmationMessage carries everything needed to render a confirmation email.
type ConfirmationMessage struct {
	Email    string
	Username string
	Token    string
	BaseURL  string
}

// Link returns the confirmation URL for m.
func (m ConfirmationMessage) Link() string {
	return ConfirmationLink(m.BaseURL, m.Token)
}

// Sender delivers confirmation messages.
type Sender interface {
	SendConfirmation(ctx context.Context, msg ConfirmationMessage) error
}

// ConfirmationLink builds <base>/api/auth/confirmed_email/<token>.
func ConfirmationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/api/auth/confirmed_email/" + url.PathEscape(token)
}
