// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/accounts/internal/auth"
)

// WriterNotifier prints messages to a writer.
type WriterNotifier struct {
	mu   sync.Mutex
	w    io.Writer
	from string
}

// NewWriterNotifier creates a WriterNotifier that writes to w.
func NewWriterNotifier(w io.Writer, from string) *WriterNotifier {
	return &WriterNotifier{w: w, from: from}
}

// Send writes msg as a plain-text mail.
func (n *WriterNotifier) Send(ctx context.Context, msg auth.Message) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").Wrap(err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	_, err := fmt.Fprintf(n.w, "From: %s\nTo: %s\nSubject: %s\n\n%s\n\n",
		n.from, msg.To, msg.Subject, msg.TextBody)
	if err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").With("driver", "writer").Wrap(err)
	}
	return nil
}

var _ auth.Notifier = (*WriterNotifier)(nil)
