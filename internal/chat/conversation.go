package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation.
type Message struct {
	ID   string    `json:"id"`
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Sender abstracts the outbound chat call for testability.
type Sender interface {
	Send(ctx context.Context, userEmail, text string) (string, error)
}

// Conversation holds the message history for one authenticated user. A failed
// send leaves the history exactly as it was; the user message and the reply
// are only appended together once the upstream call succeeds.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
}

// Send forwards text upstream and, on success, records both sides of the
// exchange. The assistant message is returned.
func (c *Conversation) Send(ctx context.Context, sender Sender, userEmail, text string) (Message, error) {
	reply, err := sender.Send(ctx, userEmail, text)
	if err != nil {
		return Message{}, err
	}

	now := time.Now().UTC()
	userMsg := Message{ID: uuid.NewString(), Role: RoleUser, Text: text, At: now}
	replyMsg := Message{ID: uuid.NewString(), Role: RoleAssistant, Text: reply, At: now}

	c.mu.Lock()
	c.messages = append(c.messages, userMsg, replyMsg)
	c.mu.Unlock()

	return replyMsg, nil
}

// Messages returns a copy of the conversation history.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}
