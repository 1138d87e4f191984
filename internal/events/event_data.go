package events

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// ImportCompletedData contains data for ImportCompleted events
type ImportCompletedData struct {
	BatchID  string `json:"batch_id"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
}

// EventType returns the event type for ImportCompletedData
func (d *ImportCompletedData) EventType() EventType {
	return ImportCompleted
}

// SymbolRemovedData contains data for SymbolRemoved events
type SymbolRemovedData struct {
	Symbol string `json:"symbol"`
	Bars   int64  `json:"bars"`
}

// EventType returns the event type for SymbolRemovedData
func (d *SymbolRemovedData) EventType() EventType {
	return SymbolRemoved
}

// AccountChangedData contains data for AccountCreated/AccountUpdated/AccountDeleted events
type AccountChangedData struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name,omitempty"`
	Action    string `json:"action"` // created, updated, deleted
}

// EventType returns the event type matching the action
func (d *AccountChangedData) EventType() EventType {
	switch d.Action {
	case "created":
		return AccountCreated
	case "deleted":
		return AccountDeleted
	default:
		return AccountUpdated
	}
}

// TransactionData contains data for TransactionRecorded/TransactionDeleted events
type TransactionData struct {
	TransactionID int64   `json:"transaction_id"`
	AccountID     int64   `json:"account_id"`
	Amount        float64 `json:"amount"`
	Direction     string  `json:"direction"`
	Deleted       bool    `json:"deleted,omitempty"`
}

// EventType returns the event type for TransactionData
func (d *TransactionData) EventType() EventType {
	if d.Deleted {
		return TransactionDeleted
	}
	return TransactionRecorded
}

// HoldingChangedData contains data for HoldingChanged events
type HoldingChangedData struct {
	HoldingID int64  `json:"holding_id"`
	AccountID int64  `json:"account_id"`
	Symbol    string `json:"symbol"`
	Action    string `json:"action"` // created, updated, deleted
}

// EventType returns the event type for HoldingChangedData
func (d *HoldingChangedData) EventType() EventType {
	return HoldingChanged
}

// SnapshotSavedData contains data for SnapshotSaved events
type SnapshotSavedData struct {
	SnapshotID string  `json:"snapshot_id"`
	TotalValue float64 `json:"total_value"`
	Partial    bool    `json:"partial"`
}

// EventType returns the event type for SnapshotSavedData
func (d *SnapshotSavedData) EventType() EventType {
	return SnapshotSaved
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Databases int      `json:"databases"`
	Keys      []string `json:"keys,omitempty"`
	Failed    bool     `json:"failed,omitempty"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}
