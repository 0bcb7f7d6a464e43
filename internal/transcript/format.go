package transcript

import (
	"encoding/json"
	"time"
)

type formattedMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Time    string `json:"time,omitempty"`
}

type formattedConversation struct {
	Conversation []formattedMessage `json:"conversation"`
	Metadata     struct {
		MessageCount  int    `json:"message_count"`
		CurrentUserID string `json:"current_user_id,omitempty"`
	} `json:"metadata"`
}

// FormatJSON renders a message sequence as a compact JSON document suitable
// for model consumption.
func FormatJSON(messages []Message, userID string) string {
	doc := formattedConversation{Conversation: make([]formattedMessage, 0, len(messages))}
	for _, m := range messages {
		fm := formattedMessage{Sender: m.Speaker, Content: m.Text}
		if !m.Timestamp.IsZero() {
			fm.Time = m.Timestamp.Format(time.DateTime)
		}
		doc.Conversation = append(doc.Conversation, fm)
	}
	doc.Metadata.MessageCount = len(messages)
	doc.Metadata.CurrentUserID = userID

	out, err := json.Marshal(doc)
	if err != nil {
		return "" // cannot happen for these types
	}
	return string(out)
}

// Texts flattens a message sequence into bare text lines, the shape the
// remote analysis contract expects for chat_history.
func Texts(messages []Message) []string {
	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = m.Text
	}
	return texts
}
