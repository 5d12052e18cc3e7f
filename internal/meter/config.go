package meter

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// roomsDocument is the on-disk shape of the rooms/meters file:
//
//	rooms:
//	  - name: kitchen
//	    meters:
//	      - id: kitchen-cold
//	        name: Cold
//	        offset: 100.5
type roomsDocument struct {
	Rooms []Room `yaml:"rooms"`
}

// LoadRooms reads and validates the rooms/meters document.
//
// All structural problems are reported as ErrInvalidConfig: a missing or
// unreadable file, malformed YAML (including non-numeric offsets), empty
// or duplicate room names, rooms without meters, meters without id or
// name, and meter ids duplicated anywhere in the tree. The file is read
// exactly once; the returned rooms are immutable by convention.
func LoadRooms(path string) ([]Room, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, path, err)
	}

	var doc roomsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrInvalidConfig, path, err)
	}

	if err := validateRooms(doc.Rooms); err != nil {
		return nil, err
	}

	return doc.Rooms, nil
}

// validateRooms checks the structural invariants of the configuration
// tree. Meter ids must be unique across the whole configuration, not just
// within a room.
func validateRooms(rooms []Room) error {
	if len(rooms) == 0 {
		return fmt.Errorf("%w: no rooms defined", ErrInvalidConfig)
	}

	roomNames := make(map[string]bool, len(rooms))
	meterIDs := make(map[string]string) // meter id -> room name

	for _, room := range rooms {
		name := strings.TrimSpace(room.Name)
		if name == "" {
			return fmt.Errorf("%w: room with empty name", ErrInvalidConfig)
		}
		if roomNames[name] {
			return fmt.Errorf("%w: duplicate room %q", ErrInvalidConfig, name)
		}
		roomNames[name] = true

		if len(room.Meters) == 0 {
			return fmt.Errorf("%w: room %q has no meters", ErrInvalidConfig, name)
		}

		for _, m := range room.Meters {
			if strings.TrimSpace(m.ID) == "" {
				return fmt.Errorf("%w: meter without id in room %q", ErrInvalidConfig, name)
			}
			if strings.TrimSpace(m.Name) == "" {
				return fmt.Errorf("%w: meter %q has no display name", ErrInvalidConfig, m.ID)
			}
			if otherRoom, seen := meterIDs[m.ID]; seen {
				return fmt.Errorf("%w: meter id %q defined in both %q and %q",
					ErrInvalidConfig, m.ID, otherRoom, name)
			}
			meterIDs[m.ID] = name
		}
	}

	return nil
}
