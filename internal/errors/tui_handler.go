package errors

import (
	"sync"
	"time"
)

// maxMessages bounds the history kept for the popup footer.
const maxMessages = 20

// TUIHandler collects messages for display in the popup instead of
// printing them over the screen.
type TUIHandler struct {
	mu        sync.RWMutex
	messages  []Message
	onMessage func(msg Message)
	now       func() time.Time
}

type Message struct {
	Text      string
	Type      MessageType
	Timestamp time.Time
}

type MessageType int

const (
	MessageTypeError MessageType = iota
	MessageTypeWarning
	MessageTypeInfo
	MessageTypeSuccess
)

var _ ErrorHandler = (*TUIHandler)(nil)

func NewTUIHandler(onMessage func(msg Message)) *TUIHandler {
	return &TUIHandler{onMessage: onMessage, now: time.Now}
}

func (h *TUIHandler) Error(msg string)   { h.add(msg, MessageTypeError) }
func (h *TUIHandler) Warning(msg string) { h.add(msg, MessageTypeWarning) }
func (h *TUIHandler) Info(msg string)    { h.add(msg, MessageTypeInfo) }
func (h *TUIHandler) Success(msg string) { h.add(msg, MessageTypeSuccess) }

func (h *TUIHandler) add(text string, msgType MessageType) {
	h.mu.Lock()
	message := Message{Text: text, Type: msgType, Timestamp: h.now()}
	h.messages = append(h.messages, message)
	if len(h.messages) > maxMessages {
		h.messages = append([]Message(nil), h.messages[len(h.messages)-maxMessages:]...)
	}
	callback := h.onMessage
	h.mu.Unlock()

	if callback != nil {
		callback(message)
	}
}

// Latest returns the most recent message.
func (h *TUIHandler) Latest() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

func (h *TUIHandler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// All returns a copy of the retained messages, oldest first.
func (h *TUIHandler) All() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	copied := make([]Message, len(h.messages))
	copy(copied, h.messages)
	return copied
}
