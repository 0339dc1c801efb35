package entity

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type Message struct {
	Role    MessageRole
	Content string
}

// CommentRequest is the context sent to the suggestion provider.
type CommentRequest struct {
	VideoTitle        string
	ChannelName       string
	ExtraInstructions string
	Transcript        string
}
