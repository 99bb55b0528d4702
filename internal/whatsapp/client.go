// Package whatsapp talks to the Meta WhatsApp Cloud API for sending
// messages and fetching inbound media.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"jiva/internal/logging"
)

const defaultBaseURL = "https://graph.facebook.com/v18.0"

// ErrTokenExpired marks a 401 from the Graph API. The access token must
// be replaced with a fresh permanent System User token
// (docs/GET_PERMANENT_TOKEN.md); nothing can be sent until then.
var ErrTokenExpired = errors.New("whatsapp access token expired or invalid")

type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	phoneNumberID string
	log           *zap.Logger
}

type Option func(*Client)

// WithBaseURL points the client at a different Graph endpoint (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(token, phoneNumberID string, opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		baseURL:       defaultBaseURL,
		token:         token,
		phoneNumberID: phoneNumberID,
		log:           logging.Named("whatsapp"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type templatePayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Template         struct {
		Name     string `json:"name"`
		Language struct {
			Code string `json:"code"`
		} `json:"language"`
	} `json:"template"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText delivers a plain text message and returns the wamid assigned
// by the API.
func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	p := textPayload{MessagingProduct: "whatsapp", To: to, Type: "text"}
	p.Text.Body = body
	return c.send(ctx, p)
}

// SendTemplate delivers an approved template message (e.g. hello_world),
// the only kind Meta accepts outside the 24h customer service window.
func (c *Client) SendTemplate(ctx context.Context, to, name, langCode string) (string, error) {
	p := templatePayload{MessagingProduct: "whatsapp", To: to, Type: "template"}
	p.Template.Name = name
	p.Template.Language.Code = langCode
	return c.send(ctx, p)
}

func (c *Client) send(ctx context.Context, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var sr sendResponse
		if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil || len(sr.Messages) == 0 {
			return "", nil
		}
		return sr.Messages[0].ID, nil
	case resp.StatusCode == http.StatusUnauthorized:
		c.log.Error("message not sent: token expired, mint a new permanent token (see docs/GET_PERMANENT_TOKEN.md)")
		return "", ErrTokenExpired
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode, string(b))
	}
}

// ValidateToken probes the phone number endpoint so an expired token is
// caught at startup instead of on the first user message.
func (c *Client) ValidateToken(ctx context.Context) error {
	if c.token == "" || c.phoneNumberID == "" {
		return errors.New("WHATSAPP_ACCESS_TOKEN or WHATSAPP_PHONE_NUMBER_ID missing")
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token check: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return ErrTokenExpired
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("token check status %d: %s", resp.StatusCode, string(b))
	}
}

type mediaInfo struct {
	URL string `json:"url"`
}

// MediaURL resolves a webhook media id into a short-lived download URL.
func (c *Client) MediaURL(ctx context.Context, mediaID string) (string, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrTokenExpired
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media url status %d", resp.StatusCode)
	}

	var mi mediaInfo
	if err := json.NewDecoder(resp.Body).Decode(&mi); err != nil {
		return "", err
	}
	return mi.URL, nil
}

// DownloadMedia fetches the media bytes behind a URL from MediaURL.
// Returns the payload and its content type.
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, "", ErrTokenExpired
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}
