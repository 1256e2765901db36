package mpv

import (
	"context"
	"fmt"
	"time"

	"skipintro/internal/prompt"
)

const (
	answerMessage = "skipintro-answer"
	promptSection = "skipintro-prompt"
	// untimedOSDMS keeps the OSD text up while waiting without a timeout.
	untimedOSDMS = 24 * 60 * 60 * 1000
)

// OSD asks on mpv's on-screen display. The yes and no keys are bound in a
// forced input section for as long as the question is open.
type OSD struct {
	client *Client
	yesKey string
	noKey  string
}

var _ prompt.Confirmer = (*OSD)(nil)

// NewOSD returns an OSD confirmer bound to y and n.
func NewOSD(client *Client) *OSD {
	return &OSD{client: client, yesKey: "y", noKey: "n"}
}

func (o *OSD) SupportsTimeout() bool { return true }

// Confirm shows req and waits for a key press or ctx.
func (o *OSD) Confirm(ctx context.Context, req prompt.Request) (bool, error) {
	answers, unsubscribe := o.client.Subscribe()
	defer unsubscribe()

	bindings := fmt.Sprintf("%s script-message %s yes\n%s script-message %s no\n",
		o.yesKey, answerMessage, o.noKey, answerMessage)
	if _, err := o.client.Command(ctx, "define-section", promptSection, bindings, "force"); err != nil {
		return false, fmt.Errorf("bind prompt keys: %w", err)
	}
	if _, err := o.client.Command(ctx, "enable-section", promptSection); err != nil {
		return false, fmt.Errorf("enable prompt keys: %w", err)
	}
	defer o.cleanup()

	durationMS := untimedOSDMS
	if req.Timeout > 0 {
		durationMS = int(req.Timeout / time.Millisecond)
	}
	text := fmt.Sprintf("%s\n%s\n[%s] %s   [%s] %s", req.Heading, req.Message, o.yesKey, req.YesLabel, o.noKey, req.NoLabel)
	if err := o.client.ShowText(ctx, text, durationMS); err != nil {
		return false, fmt.Errorf("show prompt: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-o.client.Done():
			return false, ErrClosed
		case args := <-answers:
			if len(args) == 2 && args[0] == answerMessage {
				return args[1] == "yes", nil
			}
		}
	}
}

// cleanup runs on a fresh context so a cancelled prompt still releases its
// key bindings and OSD text.
func (o *OSD) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), o.client.timeout)
	defer cancel()
	_, _ = o.client.Command(ctx, "disable-section", promptSection)
	_, _ = o.client.Command(ctx, "show-text", "", 1)
}
