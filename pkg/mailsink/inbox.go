package mailsink

import (
	"bytes"
	"mime"
	"net/mail"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one email captured by the sink
type Message struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	To         []string  `json:"to"`
	Subject    string    `json:"subject"`
	Size       int       `json:"size"`
	ReceivedAt time.Time `json:"received_at"`
	Raw        string    `json:"raw"`
}

// Inbox keeps the most recent messages in memory, oldest dropped first
type Inbox struct {
	mu       sync.RWMutex
	messages []Message
	capacity int
}

// NewInbox creates an inbox holding at most capacity messages.
// A non-positive capacity defaults to 100.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = 100
	}
	return &Inbox{capacity: capacity}
}

// Add records a raw RFC 5322 message
func (i *Inbox) Add(from string, to []string, data []byte) Message {
	msg := Message{
		ID:         uuid.NewString(),
		From:       from,
		To:         append([]string(nil), to...),
		Subject:    subjectOf(data),
		Size:       len(data),
		ReceivedAt: time.Now().UTC(),
		Raw:        string(data),
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.messages = append(i.messages, msg)
	if over := len(i.messages) - i.capacity; over > 0 {
		i.messages = append([]Message(nil), i.messages[over:]...)
	}
	return msg
}

// List returns the messages newest first
func (i *Inbox) List() []Message {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]Message, 0, len(i.messages))
	for n := len(i.messages) - 1; n >= 0; n-- {
		out = append(out, i.messages[n])
	}
	return out
}

func (i *Inbox) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.messages)
}

func (i *Inbox) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = nil
}

func subjectOf(data []byte) string {
	parsed, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	subject := parsed.Header.Get("Subject")
	dec := new(mime.WordDecoder)
	if decoded, err := dec.DecodeHeader(subject); err == nil {
		return decoded
	}
	return subject
}
