package config

import (
	"maps"
	"slices"
)

// MergePolicy decides how a derived connection meets an explicit one.
type MergePolicy int

const (
	// PolicyOverwrite lets explicit entries win; the derived block only
	// fills an empty slot.
	PolicyOverwrite MergePolicy = iota
	// PolicyInsertIfPresent adds nothing when the derived block is absent
	// and otherwise writes it over any entry of the same name.
	PolicyInsertIfPresent
)

func (p MergePolicy) String() string {
	switch p {
	case PolicyOverwrite:
		return "overwrite"
	case PolicyInsertIfPresent:
		return "insert_if_present"
	default:
		return "unknown"
	}
}

// DerivedConnection is a connection built from dedicated variables rather
// than the explicit JSON map. A nil Connection means the source was unset.
type DerivedConnection struct {
	Name       string
	Connection *Connection
	Policy     MergePolicy
}

// MergeConnections layers derived blocks, in order, over a copy of explicit.
// It returns the merged map and the sorted names of explicit entries that a
// derived block replaced. Neither input is modified.
func MergeConnections(explicit map[string]Connection, derived ...DerivedConnection) (map[string]Connection, []string) {
	out := make(map[string]Connection, len(explicit)+len(derived))
	for name, conn := range explicit {
		out[name] = conn.Clone()
	}

	var replaced []string
	for _, d := range derived {
		if d.Name == "" || d.Connection == nil {
			continue
		}
		_, exists := out[d.Name]
		switch d.Policy {
		case PolicyOverwrite:
			if exists {
				continue
			}
		case PolicyInsertIfPresent:
			if exists {
				replaced = append(replaced, d.Name)
			}
		}
		out[d.Name] = d.Connection.Clone()
	}

	slices.Sort(replaced)
	return out, slices.Compact(replaced)
}

// ConnectionNames returns the sorted service names of m.
func ConnectionNames(m map[string]Connection) []string {
	return slices.Sorted(maps.Keys(m))
}
