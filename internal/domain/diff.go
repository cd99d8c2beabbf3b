package domain

import "fmt"

// FieldChange describes one human-meaningful difference between snapshots.
type FieldChange struct {
	Field    string `json:"field"`
	Label    string `json:"label"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// diffFields is the fixed set of fields surfaced in audit diffs. Fields
// outside this set are ignored even when they differ.
var diffFields = []struct {
	key   string
	label string
}{
	{"description", "Description"},
	{"resolution", "Resolution"},
	{"category", "Category"},
	{"department", "Department"},
	{"extension", "Extension"},
	{"reporter", "Reporter"},
	{"resolver", "Resolver"},
	{"status", "Status"},
	{"notes", "Notes"},
}

// DiffSnapshots emits a change triple for every fixed field whose value
// differs between the two snapshots. Either snapshot may be nil.
func DiffSnapshots(before, after Snapshot) []FieldChange {
	if before == nil || after == nil {
		return nil
	}
	var changes []FieldChange
	for _, field := range diffFields {
		oldVal := snapshotString(before, field.key)
		newVal := snapshotString(after, field.key)
		if oldVal == newVal {
			continue
		}
		changes = append(changes, FieldChange{
			Field:    field.key,
			Label:    field.label,
			OldValue: oldVal,
			NewValue: newVal,
		})
	}
	return changes
}

func snapshotString(snap Snapshot, key string) string {
	value, ok := snap[key]
	if !ok || value == nil {
		return ""
	}
	if s, isString := value.(string); isString {
		return s
	}
	return fmt.Sprintf("%v", value)
}
