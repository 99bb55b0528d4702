package whatsapp

import (
	"encoding/json"
	"testing"
)

const sampleTextPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "1010",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "messages": [{
          "from": "919999999999",
          "id": "wamid.abc",
          "timestamp": "1700000000",
          "type": "text",
          "text": {"body": "I have a headache"}
        }]
      }
    }]
  }]
}`

func TestParseIncomingText(t *testing.T) {
	var p WebhookPayload
	if err := json.Unmarshal([]byte(sampleTextPayload), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	in, ok := ParseIncoming(&p)
	if !ok {
		t.Fatal("expected a message")
	}
	if in.From != "919999999999" || in.Body != "I have a headache" || in.Kind != "text" {
		t.Fatalf("unexpected incoming: %+v", in)
	}
}

func TestParseIncomingImageWithCaption(t *testing.T) {
	p := &WebhookPayload{Entry: []Entry{{Changes: []Change{{Value: Value{Messages: []WebhookMessage{{
		From:  "919999999999",
		Type:  "image",
		Image: &MediaContent{ID: "media-77", Caption: "my prescription"},
	}}}}}}}}

	in, ok := ParseIncoming(p)
	if !ok {
		t.Fatal("expected a message")
	}
	if in.MediaID != "media-77" || in.Body != "my prescription" || in.Kind != "image" {
		t.Fatalf("unexpected incoming: %+v", in)
	}
}

func TestParseIncomingAudioHasNoCaption(t *testing.T) {
	p := &WebhookPayload{Entry: []Entry{{Changes: []Change{{Value: Value{Messages: []WebhookMessage{{
		From:  "919999999999",
		Type:  "audio",
		Audio: &MediaContent{ID: "voice-1", MimeType: "audio/ogg"},
	}}}}}}}}

	in, ok := ParseIncoming(p)
	if !ok {
		t.Fatal("expected a message")
	}
	if in.Body != "" || in.MediaID != "voice-1" || in.Kind != "audio" {
		t.Fatalf("unexpected incoming: %+v", in)
	}
}

func TestParseIncomingIgnoresStatusUpdates(t *testing.T) {
	p := &WebhookPayload{Entry: []Entry{{Changes: []Change{{Field: "messages", Value: Value{}}}}}}
	if _, ok := ParseIncoming(p); ok {
		t.Fatal("status-only payload must not produce a message")
	}
}

func TestParseIncomingUnsupportedKind(t *testing.T) {
	p := &WebhookPayload{Entry: []Entry{{Changes: []Change{{Value: Value{Messages: []WebhookMessage{{
		From: "919999999999",
		Type: "sticker",
	}}}}}}}}
	if _, ok := ParseIncoming(p); ok {
		t.Fatal("unsupported kinds must be ignored")
	}
}
