package domain

// Snapshot is a point-in-time copy of a work log's content, stored alongside
// audit entries. Timestamps and lifecycle flags are deliberately excluded so
// that snapshotting the same content always yields the same mapping.
type Snapshot map[string]any

// Snapshot captures the current content of the work log.
func (w *WorkLog) Snapshot() Snapshot {
	snap := Snapshot{
		"id":            w.ID,
		"serial_number": w.SerialNumber,
		"description":   w.Description,
		"resolution":    w.Resolution,
		"category":      w.Category,
		"department":    w.Department,
		"extension":     w.Extension,
		"reporter":      w.Reporter,
		"resolver":      w.Resolver,
		"status":        string(w.Status),
		"notes":         w.Notes,
	}
	for key, value := range w.Extra {
		if _, taken := snap[key]; !taken {
			snap[key] = value
		}
	}
	return snap
}
