// Package bot runs the message processing pipeline: profile lookup and
// onboarding, history context, media resolution, the model call and the
// side effects the model requests through tags.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"jiva/internal/chat"
	"jiva/internal/llm"
	"jiva/internal/logging"
	"jiva/internal/middleware"
	"jiva/internal/recall"
	"jiva/internal/store"
	"jiva/internal/whatsapp"
)

// Messenger is the slice of the WhatsApp client the pipeline needs.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (string, error)
	MediaURL(ctx context.Context, mediaID string) (string, error)
	DownloadMedia(ctx context.Context, mediaURL string) ([]byte, string, error)
}

type Bot struct {
	store        *store.Store
	wa           Messenger
	adapter      chat.Adapter
	chain        *middleware.Chain
	log          *zap.Logger
	historyLimit int
	now          func() time.Time
}

type Option func(*Bot)

// WithClock fixes the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

func WithHistoryLimit(n int) Option {
	return func(b *Bot) { b.historyLimit = n }
}

func New(st *store.Store, wa Messenger, adapter chat.Adapter, chain *middleware.Chain, opts ...Option) *Bot {
	b := &Bot{
		store:        st,
		wa:           wa,
		adapter:      adapter,
		chain:        chain,
		log:          logging.Named("bot"),
		historyLimit: 10,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandleIncoming processes one webhook message end to end. Errors are
// returned for logging only; the webhook has already been acknowledged.
func (b *Bot) HandleIncoming(ctx context.Context, in whatsapp.Incoming) error {
	user, err := b.store.UserByPhone(ctx, in.From)
	if errors.Is(err, store.ErrNotFound) {
		return b.onboard(ctx, in.From)
	}
	if err != nil {
		return err
	}

	if user.Name == store.PendingName {
		return b.captureName(ctx, user, in.Body)
	}

	return b.reply(ctx, user, in)
}

func (b *Bot) onboard(ctx context.Context, phone string) error {
	if _, err := b.store.CreateUser(ctx, phone, store.PendingName); err != nil {
		return err
	}
	b.log.Info("new user onboarding", zap.String("phone", phone))
	_, err := b.wa.SendText(ctx, phone, onboardingGreeting)
	return err
}

func (b *Bot) captureName(ctx context.Context, user *store.User, body string) error {
	name := strings.TrimSpace(body)
	if name == "" {
		_, err := b.wa.SendText(ctx, user.PhoneNumber, onboardingGreeting)
		return err
	}

	if err := b.store.UpdateProfile(ctx, user.PhoneNumber, map[string]any{"name": name}); err != nil {
		b.log.Error("failed to store name", zap.Error(err))
		_, err := b.wa.SendText(ctx, user.PhoneNumber, nameSaveTrouble)
		return err
	}
	_, err := b.wa.SendText(ctx, user.PhoneNumber, welcomeReply(name))
	return err
}

func (b *Bot) reply(ctx context.Context, user *store.User, in whatsapp.Incoming) error {
	full, err := b.store.History(ctx, user.ID, b.historyLimit+recallScanDepth)
	if err != nil {
		return err
	}
	older, window := splitWindow(full, b.historyLimit)

	body := in.Body
	attachment, note := b.resolveMedia(ctx, in)
	if note != "" {
		body = strings.TrimSpace(body + "\n" + note)
	}

	now := b.now()
	system := systemInstruction(user, now, len(full) == 0)
	if recalled := recall.Relevant(older, body, 3); len(recalled) > 0 {
		system += "\n" + recall.ContextBlock(recalled)
	}
	svc := chat.NewService(b.adapter,
		chat.WithMiddlewareChain(b.chain),
		chat.WithSystemPrompt(system),
	)
	svc.Seed(toChatHistory(window))

	mwCtx := map[string]any{
		"phone":             user.PhoneNumber,
		"name":              user.Name,
		"emergency_contact": user.EmergencyContact,
		"hour":              now.Hour(),
	}

	var answer string
	if attachment != nil {
		answer, err = svc.SendMedia(ctx, body, attachment, mwCtx)
	} else {
		answer, err = svc.SendWithContext(ctx, body, mwCtx)
	}
	switch {
	case err == nil:
	case errors.Is(err, llm.ErrAllProvidersFailed):
		b.log.Error("all AI systems failed", zap.Error(err))
		answer = overloadReply
	default:
		return fmt.Errorf("chat turn for %s: %w", user.PhoneNumber, err)
	}

	final := b.applyTags(ctx, user, body, answer)

	if err := b.store.SaveMessage(ctx, user.ID, string(chat.RoleUser), body); err != nil {
		b.log.Error("failed to save user message", zap.Error(err))
	}
	if err := b.store.SaveMessage(ctx, user.ID, string(chat.RoleAssistant), final); err != nil {
		b.log.Error("failed to save assistant message", zap.Error(err))
	}

	_, err = b.wa.SendText(ctx, user.PhoneNumber, final)
	return err
}

// resolveMedia downloads an attached image or voice note and produces
// the annotation line the model sees alongside the caption.
func (b *Bot) resolveMedia(ctx context.Context, in whatsapp.Incoming) (*chat.Attachment, string) {
	if in.MediaID == "" {
		return nil, ""
	}

	url, err := b.wa.MediaURL(ctx, in.MediaID)
	if err != nil {
		b.log.Error("failed to resolve media url", zap.Error(err))
		return nil, ""
	}
	data, mime, err := b.wa.DownloadMedia(ctx, url)
	if err != nil {
		b.log.Error("failed to download media", zap.Error(err))
		return nil, ""
	}

	switch {
	case strings.HasPrefix(mime, "image"):
		return &chat.Attachment{MIME: mime, Data: data}, "[System: the user uploaded a medical image or prescription]"
	case strings.HasPrefix(mime, "audio"):
		return &chat.Attachment{MIME: mime, Data: data}, "[System: the user sent a voice note; listen carefully and reply]"
	default:
		b.log.Warn("unsupported media type", zap.String("mime", mime))
		return nil, ""
	}
}

// applyTags executes the side effects encoded in the model output and
// returns the cleaned user-facing text.
func (b *Bot) applyTags(ctx context.Context, user *store.User, userText, answer string) string {
	updates, final := extractProfileTag(answer)
	if len(updates) > 0 {
		if err := b.store.UpdateProfile(ctx, user.PhoneNumber, updates); err != nil {
			b.log.Error("profile update from tag failed", zap.Error(err))
		} else if contact, ok := updates["emergency_contact"].(string); ok && contact != "" {
			user.EmergencyContact = contact
			final += fmt.Sprintf("\n(Saved emergency contact: %s)", contact)
		}
	}

	reminders, final := extractReminderTags(final)
	scheduled := 0
	for _, r := range reminders {
		at, ok := parseReminderTime(r.Time, b.now())
		if !ok {
			b.log.Warn("unparseable reminder time", zap.String("time", r.Time))
			continue
		}
		if _, err := b.store.CreateReminder(ctx, user.ID, at, r.Message); err != nil {
			b.log.Error("failed to create reminder", zap.Error(err))
			continue
		}
		scheduled++
	}
	if scheduled > 0 {
		b.log.Info("reminders scheduled", zap.Int("count", scheduled), zap.String("phone", user.PhoneNumber))
	}

	sos, final := extractSOS(final)
	if sos {
		final = b.handleSOS(ctx, user, userText, final)
	}
	return strings.TrimSpace(final)
}

func (b *Bot) handleSOS(ctx context.Context, user *store.User, userText, final string) string {
	if user.EmergencyContact == "" {
		return final + "\n\nI tried to alert your family, but no emergency contact is saved. Please call 102/108 immediately."
	}

	b.log.Warn("SOS triggered", zap.String("phone", user.PhoneNumber))
	alert := fmt.Sprintf("EMERGENCY: %s (%s) needs help! Message: %q", user.Name, user.PhoneNumber, userText)
	if _, err := b.wa.SendText(ctx, user.EmergencyContact, alert); err != nil {
		b.log.Error("failed to alert emergency contact", zap.Error(err))
		return final + "\n\nI could not reach your emergency contact. Please call 102/108 immediately."
	}
	return final + "\n\nI have alerted your emergency contact. Help is on the way."
}

// recallScanDepth is how many messages beyond the live window are
// scanned for relevant older context.
const recallScanDepth = 50

// splitWindow separates chronological history into the part the model
// sees verbatim (the trailing window) and the older remainder.
func splitWindow(msgs []store.Message, window int) (older, live []store.Message) {
	if len(msgs) <= window {
		return nil, msgs
	}
	cut := len(msgs) - window
	return msgs[:cut], msgs[cut:]
}

func toChatHistory(msgs []store.Message) []chat.Message {
	out := make([]chat.Message, 0, len(msgs))
	for _, m := range msgs {
		role := chat.Role(m.Role)
		if role != chat.RoleUser && role != chat.RoleAssistant {
			continue
		}
		out = append(out, chat.Message{Role: role, Content: m.Content})
	}
	return out
}
