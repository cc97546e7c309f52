package amqp

import (
	"encoding/json"
	"time"
)

// LedgerSyncMessage is a lightweight pointer to one ledger month that
// needs mirroring to Google Sheets. The worker fetches the full record
// from the database; the version guards against syncing stale edits.
type LedgerSyncMessage struct {
	CarID     int64     `json:"car_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerSyncMessage(carID int64, year, month int, version int64) *LedgerSyncMessage {
	return &LedgerSyncMessage{
		CarID:     carID,
		Year:      year,
		Month:     month,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *LedgerSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSyncMessageFromJSON(data []byte) (*LedgerSyncMessage, error) {
	var msg LedgerSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
