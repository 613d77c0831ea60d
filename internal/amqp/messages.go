package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MessageVersion is bumped when an alert payload changes shape.
const MessageVersion = 1

type AlertKind string

const (
	KindBudget AlertKind = "budget"
	KindRisk   AlertKind = "risk"
)

// Alert is any message the publisher can send.
type Alert interface {
	Kind() AlertKind
	ToJSON() ([]byte, error)
}

// BudgetAlertMessage reports a budget that reached warning or exceeded.
type BudgetAlertMessage struct {
	ID          string           `json:"id"`
	Version     int              `json:"version"`
	Timestamp   time.Time        `json:"timestamp"`
	UserID      string           `json:"userId"`
	Month       string           `json:"month"`
	Category    string           `json:"category"`
	Status      core.BudgetState `json:"status"`
	Limit       decimal.Decimal  `json:"limit"`
	Spent       decimal.Decimal  `json:"spent"`
	PercentUsed int64            `json:"percentUsed"`
}

// RiskAlertMessage reports a user whose month-to-date risk is high.
type RiskAlertMessage struct {
	ID        string           `json:"id"`
	Version   int              `json:"version"`
	Timestamp time.Time        `json:"timestamp"`
	UserID    string           `json:"userId"`
	Month     string           `json:"month"`
	Score     int64            `json:"score"`
	Level     core.RiskLevel   `json:"level"`
	Signals   core.RiskSignals `json:"signals"`
}

func NewBudgetAlert(userID, month string, s core.BudgetStatus) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		ID:          uuid.NewString(),
		Version:     MessageVersion,
		Timestamp:   time.Now(),
		UserID:      userID,
		Month:       month,
		Category:    s.Category,
		Status:      s.Status,
		Limit:       s.Limit,
		Spent:       s.Spent,
		PercentUsed: s.PercentUsed,
	}
}

func NewRiskAlert(userID, month string, a core.RiskAssessment) *RiskAlertMessage {
	return &RiskAlertMessage{
		ID:        uuid.NewString(),
		Version:   MessageVersion,
		Timestamp: time.Now(),
		UserID:    userID,
		Month:     month,
		Score:     a.Score,
		Level:     a.Level,
		Signals:   a.Signals,
	}
}

func (m *BudgetAlertMessage) Kind() AlertKind { return KindBudget }

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *RiskAlertMessage) Kind() AlertKind { return KindRisk }

func (m *RiskAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func RiskAlertFromJSON(data []byte) (*RiskAlertMessage, error) {
	var msg RiskAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
