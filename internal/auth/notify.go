// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"fmt"
	"html"
	"net/url"

	"github.com/samber/oops"
)

// ResetSubject is the subject line of password reset messages.
const ResetSubject = "Password Reset"

// Message is an outbound notification.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Notifier delivers messages. Delivery is best effort: the services log
// a failed Send and carry on.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// ResetURL builds the link a user follows to reset their password.
// baseURL must be absolute, e.g. "https://example.com".
func ResetURL(baseURL, token string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", oops.Code("RESET_BASE_URL_INVALID").With("base_url", baseURL).Wrap(err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", oops.Code("RESET_BASE_URL_INVALID").
			With("base_url", baseURL).
			Errorf("reset base url must include scheme and host")
	}
	return base.JoinPath("password", "reset", token).String(), nil
}

// resetMessage renders the reset notification for link.
func resetMessage(to, link string) Message {
	return Message{
		To:       to,
		Subject:  ResetSubject,
		HTMLBody: fmt.Sprintf(`Please click <a href="%s">here</a> to reset your password.`, html.EscapeString(link)),
		TextBody: fmt.Sprintf("Please click on the following URL to reset your password: %s", link),
	}
}
