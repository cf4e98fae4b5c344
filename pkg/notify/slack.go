// Package notify delivers capture results to Slack.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slack-go/slack"

	"github.com/petwatch/go-petwatch/internal/httpc"
	"github.com/petwatch/go-petwatch/internal/log"
)

// ErrNotify is returned when a notification cannot be delivered.
var ErrNotify = errors.New("notify: delivery failed")

// Config holds the Slack credentials and destination.
type Config struct {
	// Token is a bot token with files:write and chat:write scopes.
	Token string

	// Channel is the destination channel ID (not the display name).
	Channel string
}

// Validate checks that the notifier can be constructed.
func (c Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("%w: missing token", ErrNotify)
	}
	if c.Channel == "" {
		return fmt.Errorf("%w: missing channel", ErrNotify)
	}
	return nil
}

// slackAPI is the slice of the Slack client the notifier uses.
type slackAPI interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// Slack uploads capture stills and posts text messages to one channel.
type Slack struct {
	api     slackAPI
	channel string
}

// NewSlack builds a notifier over the shared HTTP client.
func NewSlack(cfg Config) (*Slack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	api := slack.New(cfg.Token, slack.OptionHTTPClient(httpc.Client))
	return &Slack{api: api, channel: cfg.Channel}, nil
}

// TestConnection verifies the token against the Slack auth endpoint.
func (s *Slack) TestConnection(ctx context.Context) error {
	resp, err := s.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: auth test: %v", ErrNotify, err)
	}
	log.Info("slack connection verified", "team", resp.Team, "bot", resp.User)
	return nil
}

// PostMessage sends a plain text message to the configured channel.
func (s *Slack) PostMessage(ctx context.Context, text string) error {
	_, _, err := s.api.PostMessageContext(ctx, s.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("%w: post message: %v", ErrNotify, err)
	}
	return nil
}

// Notify uploads the referenced image files to the channel. The summary
// rides as the comment on the first upload so the images and the context
// land together. Later files failing does not undo earlier uploads; the
// first error is returned after the batch.
func (s *Slack) Notify(ctx context.Context, refs []string, summary string) error {
	if len(refs) == 0 {
		return nil
	}

	var firstErr error
	uploaded := 0
	commented := false
	for _, ref := range refs {
		info, err := os.Stat(ref)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: stat %s: %v", ErrNotify, ref, err)
			}
			log.Warn("upload skipped, file missing", "path", ref, "err", err)
			continue
		}

		params := slack.UploadFileV2Parameters{
			Channel:  s.channel,
			File:     ref,
			Filename: filepath.Base(ref),
			FileSize: int(info.Size()),
		}
		// The summary rides on the first upload that actually goes out.
		if !commented {
			params.InitialComment = summary
		}

		if _, err := s.api.UploadFileV2Context(ctx, params); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: upload %s: %v", ErrNotify, ref, err)
			}
			log.Warn("image upload failed", "path", ref, "err", err)
			continue
		}
		commented = true
		uploaded++
	}

	log.Info("slack notification delivered", "uploaded", uploaded, "of", len(refs))
	return firstErr
}
