package dashboard

import (
	"encoding/json"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

// Event is the envelope pushed to websocket clients.
type Event struct {
	Type     string                   `json:"type"`
	Snapshot domain.DashboardSnapshot `json:"snapshot"`
}

// EventSnapshot tags a full dashboard state.
const EventSnapshot = "snapshot"

// EncodeSnapshot renders snap in the envelope published on the dashboard
// channel.
func EncodeSnapshot(snap domain.DashboardSnapshot) ([]byte, error) {
	return json.Marshal(Event{Type: EventSnapshot, Snapshot: snap})
}
