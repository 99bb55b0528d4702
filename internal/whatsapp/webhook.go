package whatsapp

// Webhook payload shapes for the Cloud API "messages" field. Only the
// parts the bot consumes are modeled; everything else is ignored on
// decode.

type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []WebhookMessage `json:"messages"`
}

type WebhookMessage struct {
	From      string        `json:"from"`
	ID        string        `json:"id"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      *TextContent  `json:"text,omitempty"`
	Image     *MediaContent `json:"image,omitempty"`
	Audio     *MediaContent `json:"audio,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

type MediaContent struct {
	ID       string `json:"id"`
	Caption  string `json:"caption,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Incoming is the flattened view of one user message extracted from a
// webhook delivery.
type Incoming struct {
	From    string
	Body    string
	MediaID string
	Kind    string // "text", "image" or "audio"
}

// ParseIncoming extracts the first user message from a webhook payload.
// Status updates and unsupported message kinds return ok=false; the
// caller just acknowledges those.
func ParseIncoming(p *WebhookPayload) (Incoming, bool) {
	if p == nil || len(p.Entry) == 0 {
		return Incoming{}, false
	}
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				switch msg.Type {
				case "text":
					if msg.Text == nil {
						continue
					}
					return Incoming{From: msg.From, Body: msg.Text.Body, Kind: "text"}, true
				case "image":
					if msg.Image == nil {
						continue
					}
					return Incoming{From: msg.From, Body: msg.Image.Caption, MediaID: msg.Image.ID, Kind: "image"}, true
				case "audio":
					if msg.Audio == nil {
						continue
					}
					// Voice notes carry no caption.
					return Incoming{From: msg.From, MediaID: msg.Audio.ID, Kind: "audio"}, true
				}
			}
		}
	}
	return Incoming{}, false
}
