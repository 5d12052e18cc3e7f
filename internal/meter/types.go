package meter

import "time"

// Meter is a single water-usage counter.
//
// Offset is a constant added to raw counter readings to maintain
// continuity after a physical meter replacement. It may be negative and
// never changes at runtime.
type Meter struct {
	ID     string  `yaml:"id" json:"id"`
	Name   string  `yaml:"name" json:"name"`
	Offset float64 `yaml:"offset" json:"offset"`
}

// Room is a named grouping of meters, used for display and point tagging.
type Room struct {
	Name   string  `yaml:"name" json:"name"`
	Meters []Meter `yaml:"meters" json:"meters"`
}

// Reading is one validated, offset-adjusted meter reading ready to be
// written to the time-series store.
type Reading struct {
	MeterID     string    `json:"meter_id"`
	Room        string    `json:"room"`
	Timestamp   time.Time `json:"timestamp"`
	RawValue    float64   `json:"raw_value"`
	StoredValue float64   `json:"stored_value"`
}

// Index maps meter ids to their meter and room for constant-time lookup
// during submission handling. Built once from a validated configuration.
type Index map[string]IndexEntry

// IndexEntry is one meter with the room it belongs to.
type IndexEntry struct {
	Meter Meter
	Room  string
}

// NewIndex builds a meter-id index from loaded rooms.
// LoadRooms has already rejected duplicate ids.
func NewIndex(rooms []Room) Index {
	idx := make(Index)
	for _, room := range rooms {
		for _, m := range room.Meters {
			idx[m.ID] = IndexEntry{Meter: m, Room: room.Name}
		}
	}
	return idx
}

// Lookup returns the meter and room for an id.
func (idx Index) Lookup(id string) (IndexEntry, bool) {
	e, ok := idx[id]
	return e, ok
}
