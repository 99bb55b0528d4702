package chat

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Attachment is an inline media payload (image or voice note) downloaded
// from the WhatsApp media endpoint.
type Attachment struct {
	MIME string
	Data []byte
}

type Message struct {
	Role    Role
	Content string

	// Media is set on user messages that carried an image or audio
	// attachment. Providers that cannot consume binary parts ignore it.
	Media *Attachment
}
