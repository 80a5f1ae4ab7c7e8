package amqp

import (
	"encoding/json"
	"time"
)

// BudgetChangedMessage announces a shared-budget update. Amounts travel as
// decimal strings to avoid float drift on the consumer side.
type BudgetChangedMessage struct {
	Balance   string    `json:"balance"`
	Delta     string    `json:"delta"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationMessage carries an operator-facing message with its severity
// level (success, error, warning, info).
type NotificationMessage struct {
	Level     string    `json:"level"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *BudgetChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetChangedMessageFromJSON(data []byte) (*BudgetChangedMessage, error) {
	var msg BudgetChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
