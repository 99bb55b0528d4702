package chat

import (
	"context"
	"errors"
	"strings"

	"jiva/internal/middleware"
)

// Service runs one conversation: it keeps the turn history, dispatches
// middleware events around the model call, and delegates the call itself
// to an Adapter.
type Service struct {
	adapter Adapter
	history []Message
	system  string
	mws     *middleware.Chain
	stream  func(string)
}

type ServiceOption func(*Service)

func WithMiddlewareChain(chain *middleware.Chain) ServiceOption {
	return func(s *Service) {
		s.mws = chain
	}
}

// WithSystemPrompt injects a system message ahead of the history on every
// model call without storing it in the history itself.
func WithSystemPrompt(prompt string) ServiceOption {
	return func(s *Service) {
		s.system = prompt
	}
}

func WithStreamCallback(fn func(string)) ServiceOption {
	return func(s *Service) {
		s.stream = fn
	}
}

func NewService(adapter Adapter, opts ...ServiceOption) *Service {
	s := &Service{
		adapter: adapter,
		history: make([]Message, 0, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed replaces the in-memory history, e.g. with turns loaded from the
// store for a returning user.
func (s *Service) Seed(history []Message) {
	s.history = append(s.history[:0], history...)
}

func (s *Service) History() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Service) Clear() {
	s.history = s.history[:0]
}

func (s *Service) Send(ctx context.Context, input string) (string, error) {
	return s.SendWithContext(ctx, input, nil)
}

func (s *Service) SendWithContext(ctx context.Context, input string, mwCtx map[string]any) (string, error) {
	return s.send(ctx, input, nil, mwCtx)
}

// SendMedia is SendWithContext for a user turn that carries an image or
// voice-note attachment.
func (s *Service) SendMedia(ctx context.Context, input string, media *Attachment, mwCtx map[string]any) (string, error) {
	return s.send(ctx, input, media, mwCtx)
}

func (s *Service) send(ctx context.Context, input string, media *Attachment, mwCtx map[string]any) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" && media == nil {
		return "", errors.New("empty input")
	}

	params := &middleware.LLMParams{}

	if s.mws != nil {
		e := &middleware.Event{
			Name:     middleware.EventBeforeLLMRequest,
			UserText: input,
			Params:   params,
			Context:  mwCtx,
		}
		results, err := s.mws.Dispatch(ctx, e)
		if err != nil {
			return "", err
		}
		updated, canceled := applyTextDecisions(input, results)
		if canceled != nil && canceled.Cancel {
			if strings.TrimSpace(updated) != "" {
				return updated, nil
			}
			if strings.TrimSpace(canceled.Reason) == "" {
				return "", errors.New("request canceled by middleware")
			}
			return "", errors.New(canceled.Reason)
		}
		input = updated
		if e.Params != nil {
			params = e.Params
		}
	}

	turn := []Message{}
	if s.system != "" {
		turn = append(turn, Message{Role: RoleSystem, Content: s.system})
	}
	turn = append(turn, s.history...)
	turn = append(turn, Message{Role: RoleUser, Content: input, Media: media})

	assistant, err := s.adapter.ReplyStream(ctx, turn, params, s.stream)
	if err != nil {
		return "", err
	}
	assistant = strings.TrimSpace(assistant)
	if assistant == "" {
		return "", errors.New("empty response from model")
	}

	if s.mws != nil {
		e := &middleware.Event{
			Name:     middleware.EventAfterLLMResponse,
			UserText: input,
			LLMText:  assistant,
			Context:  mwCtx,
		}
		results, err := s.mws.Dispatch(ctx, e)
		if err != nil {
			return "", err
		}
		updated, canceled := applyTextDecisions(assistant, results)
		if canceled != nil && canceled.Cancel && strings.TrimSpace(updated) == "" {
			if strings.TrimSpace(canceled.Reason) == "" {
				return "", errors.New("response canceled by middleware")
			}
			return "", errors.New(canceled.Reason)
		}
		assistant = updated
	}

	s.history = append(s.history,
		Message{Role: RoleUser, Content: input, Media: media},
		Message{Role: RoleAssistant, Content: assistant},
	)
	return assistant, nil
}

func applyTextDecisions(initial string, results []middleware.DecisionResult) (string, *middleware.Decision) {
	cur := strings.TrimSpace(initial)
	for _, r := range results {
		dec := r.Decision
		if dec.ReplaceText != nil {
			cur = strings.TrimSpace(*dec.ReplaceText)
		}
		if dec.Cancel {
			return cur, &dec
		}
	}
	return cur, nil
}
