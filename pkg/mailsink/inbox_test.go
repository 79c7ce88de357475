package mailsink

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawMessage(subject string) []byte {
	return []byte(fmt.Sprintf("From: a@example.com\r\nTo: b@example.com\r\nSubject: %s\r\n\r\nbody\r\n", subject))
}

func TestInbox_AddAndList(t *testing.T) {
	inbox := NewInbox(10)

	first := inbox.Add("a@example.com", []string{"b@example.com"}, rawMessage("First"))
	inbox.Add("a@example.com", []string{"c@example.com"}, rawMessage("Second"))

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "First", first.Subject)
	assert.Equal(t, len(rawMessage("First")), first.Size)

	list := inbox.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].Subject)
	assert.Equal(t, "First", list[1].Subject)
}

func TestInbox_Capacity(t *testing.T) {
	inbox := NewInbox(2)

	for i := 0; i < 5; i++ {
		inbox.Add("a@example.com", nil, rawMessage(fmt.Sprintf("m%d", i)))
	}

	list := inbox.List()
	require.Len(t, list, 2)
	assert.Equal(t, "m4", list[0].Subject)
	assert.Equal(t, "m3", list[1].Subject)
}

func TestInbox_DefaultCapacityAndClear(t *testing.T) {
	inbox := NewInbox(0)
	assert.Equal(t, 100, inbox.capacity)

	inbox.Add("a@example.com", nil, rawMessage("x"))
	assert.Equal(t, 1, inbox.Len())

	inbox.Clear()
	assert.Equal(t, 0, inbox.Len())
	assert.Empty(t, inbox.List())
}

func TestInbox_RecipientsAreCopied(t *testing.T) {
	inbox := NewInbox(1)
	to := []string{"b@example.com"}

	inbox.Add("a@example.com", to, rawMessage("x"))
	to[0] = "changed@example.com"

	assert.Equal(t, []string{"b@example.com"}, inbox.List()[0].To)
}

func TestSubjectOf(t *testing.T) {
	assert.Equal(t, "Plain", subjectOf(rawMessage("Plain")))
	assert.Equal(t, "Café", subjectOf(rawMessage("=?UTF-8?q?Caf=C3=A9?=")))
	assert.Equal(t, "", subjectOf([]byte("not a message")))
}
