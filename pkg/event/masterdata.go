package event

import (
	"encoding/json"
	"time"
)

const (
	MasterDataTopic = "pos.masterdata"

	EventMasterDataUpdated = "masterdata.updated"
)

// MasterDataEvent carries a full replacement document for one master-data
// kind (menu, categories, profile, ingredients). Receivers overwrite their
// local copy unconditionally; Version is informational, not a merge key.
type MasterDataEvent struct {
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	BranchID   string          `json:"branch_id"`
	Kind       string          `json:"kind"`
	Version    int64           `json:"version"`
	TerminalID string          `json:"terminal_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}
