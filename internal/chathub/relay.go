package chathub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"babelbye/backend/internal/config"
	"babelbye/backend/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotConnected means the sender has no accepted connection with the recipient.
	ErrNotConnected = errors.New("chathub: sender and recipient are not connected")
	// ErrRecipientMissing means the recipient has no profile.
	ErrRecipientMissing = errors.New("chathub: recipient profile not found")
)

// Store is the persistence the relay depends on.
type Store interface {
	IsConnected(ctx context.Context, a, b string) (bool, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	SpendQuota(ctx context.Context, userID string) (bool, error)
	RecordReceipt(ctx context.Context, receipt models.MessageReceipt) error
}

// Translator renders text in the recipient's language.
type Translator interface {
	Translate(ctx context.Context, text, targetLocale string) (string, error)
}

// Sender routes an event to a user's live session.
type Sender interface {
	Send(userID string, evt models.ServerEvent) bool
}

// Relay drives one inbound client event at a time through authorization,
// translation and receipt recording, then emits the resulting events.
type Relay struct {
	store      Store
	translator Translator
	sender     Sender
	log        *slog.Logger

	notifyFailures bool
	now            func() time.Time
}

type RelayOption func(*Relay)

// WithFailureNotices makes the relay tell the sender when a send fails after
// authorization. Off by default, in which case such failures are only logged.
func WithFailureNotices(on bool) RelayOption {
	return func(r *Relay) { r.notifyFailures = on }
}

func NewRelay(store Store, translator Translator, sender Sender, log *slog.Logger, opts ...RelayOption) *Relay {
	r := &Relay{
		store:      store,
		translator: translator,
		sender:     sender,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleFrame decodes a raw text frame from userID and processes it.
// Malformed frames return an error wrapping models.ErrMalformedEvent.
func (r *Relay) HandleFrame(ctx context.Context, from string, raw []byte) error {
	evt, err := models.DecodeClientEvent(raw)
	if err != nil {
		return err
	}
	return r.HandleEvent(ctx, from, evt)
}

// HandleEvent processes one decoded client event sent by from.
func (r *Relay) HandleEvent(ctx context.Context, from string, evt models.ClientEvent) error {
	switch e := evt.(type) {
	case models.SendMessage:
		return r.sendMessage(ctx, from, e)
	case models.Typing:
		r.sender.Send(e.To, models.DeliveryEvent{To: from, Status: config.StatusTyping})
		return nil
	default:
		return fmt.Errorf("%w: unsupported event %T", models.ErrMalformedEvent, evt)
	}
}

func (r *Relay) sendMessage(ctx context.Context, from string, msg models.SendMessage) error {
	connected, err := r.store.IsConnected(ctx, from, msg.To)
	if err != nil || !connected {
		r.sender.Send(from, models.ErrorEvent{Message: config.ErrConnectionRequired})
		if err != nil {
			r.log.Warn("connection check failed", "from", from, "to", msg.To, "error", err)
			return fmt.Errorf("authorizing %s -> %s: %w", from, msg.To, err)
		}
		return ErrNotConnected
	}

	text, translated, err := r.translate(ctx, msg)
	if err != nil {
		return r.fail(from, msg, err)
	}

	receipt := models.MessageReceipt{
		ID:             uuid.NewString(),
		SenderID:       from,
		RecipientID:    msg.To,
		HasTranslation: translated,
		CreatedAt:      r.now(),
	}
	if err := r.store.RecordReceipt(ctx, receipt); err != nil {
		return r.fail(from, msg, err)
	}

	r.sender.Send(msg.To, models.MessageEvent{
		From:       from,
		Text:       text,
		Original:   msg.Text,
		Translated: translated,
		ClientID:   msg.ClientID,
	})
	r.sender.Send(from, models.DeliveryEvent{To: msg.To, Status: config.StatusSent, ClientID: msg.ClientID})
	return nil
}

// translate returns the text to deliver and whether it was machine translated.
// Quota is spent before the provider is called and is never refunded.
func (r *Relay) translate(ctx context.Context, msg models.SendMessage) (string, bool, error) {
	profile, err := r.store.GetProfile(ctx, msg.To)
	if err != nil {
		return "", false, fmt.Errorf("loading recipient profile: %w", err)
	}
	if profile == nil {
		return "", false, ErrRecipientMissing
	}
	if !profile.CanTranslate() {
		return msg.Text, false, nil
	}

	spent, err := r.store.SpendQuota(ctx, msg.To)
	if err != nil {
		return "", false, fmt.Errorf("spending quota: %w", err)
	}
	if !spent {
		// A concurrent send took the last unit after the profile was read.
		return msg.Text, false, nil
	}

	out, err := r.translator.Translate(ctx, msg.Text, profile.NativeLanguage)
	if err != nil {
		return "", false, fmt.Errorf("translating to %s: %w", profile.NativeLanguage, err)
	}
	return out, true, nil
}

func (r *Relay) fail(from string, msg models.SendMessage, err error) error {
	r.log.Error("send failed after authorization",
		"from", from, "to", msg.To, "error", err)
	if r.notifyFailures {
		r.sender.Send(from, models.ErrorEvent{Message: config.ErrDeliveryFailed})
	}
	return err
}
