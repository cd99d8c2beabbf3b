package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPayloadFromMapFillsTypedCore(t *testing.T) {
	payload := PayloadFromMap(map[string]any{
		"description": "switch port dead",
		"resolution":  "",
		"category":    "Network",
		"department":  "Sales",
		"extension":   "204",
		"reporter":    "Dana",
		"resolver":    "Eli",
		"status":      "IN_PROGRESS",
		"notes":       "port 12",
	})

	require.Equal(t, "switch port dead", payload.Description)
	require.Equal(t, "Network", payload.Category)
	require.Equal(t, "Sales", payload.Department)
	require.Equal(t, "204", payload.Extension)
	require.Equal(t, "Dana", payload.Reporter)
	require.Equal(t, "Eli", payload.Resolver)
	require.Equal(t, WorkLogStatusInProgress, payload.Status)
	require.Equal(t, "port 12", payload.Notes)
	require.Nil(t, payload.Extra)
}

func TestPayloadFromMapSkipsReservedKeys(t *testing.T) {
	payload := PayloadFromMap(map[string]any{
		"id":            int64(99),
		"serial_number": "IT20240101-000000",
		"is_deleted":    true,
		"deleted_at":    "2024-01-01T00:00:00Z",
		"deleted_by":    int64(7),
		"created_at":    "2024-01-01T00:00:00Z",
		"updated_at":    "2024-01-01T00:00:00Z",
		"description":   "keyboard broken",
	})

	require.Equal(t, "keyboard broken", payload.Description)
	require.Nil(t, payload.Extra)
}

func TestPayloadFromMapPassesUnknownKeysToExtra(t *testing.T) {
	payload := PayloadFromMap(map[string]any{
		"description":   "projector lamp",
		"vendor_ticket": "V-42",
		"urgency":       "high",
	})

	require.Equal(t, map[string]any{
		"vendor_ticket": "V-42",
		"urgency":       "high",
	}, payload.Extra)
}

func TestApplyCopiesExtra(t *testing.T) {
	extra := map[string]any{"vendor_ticket": "V-42"}
	var log WorkLog
	log.Apply(WorkLogPayload{Description: "a", Extra: extra})

	extra["vendor_ticket"] = "V-43"
	require.Equal(t, "V-42", log.Extra["vendor_ticket"])
}

func TestSnapshotExcludesLifecycleFields(t *testing.T) {
	log := sampleWorkLog()
	snap := log.Snapshot()

	require.NotContains(t, snap, "is_deleted")
	require.NotContains(t, snap, "deleted_at")
	require.NotContains(t, snap, "deleted_by")
	require.NotContains(t, snap, "created_at")
	require.NotContains(t, snap, "updated_at")
	require.Equal(t, log.ID, snap["id"])
	require.Equal(t, log.SerialNumber, snap["serial_number"])
}

func TestSnapshotRoundTripIsIdempotent(t *testing.T) {
	log := sampleWorkLog()
	first := log.Snapshot()

	var rebuilt WorkLog
	rebuilt.ID = log.ID
	rebuilt.SerialNumber = log.SerialNumber
	rebuilt.Apply(PayloadFromMap(first))
	second := rebuilt.Snapshot()

	require.Equal(t, first, second)
}

func TestSnapshotExtraNeverShadowsCoreKeys(t *testing.T) {
	log := sampleWorkLog()
	log.Extra = map[string]any{"description": "shadow attempt", "vendor": "acme"}

	snap := log.Snapshot()
	require.Equal(t, log.Description, snap["description"])
	require.Equal(t, "acme", snap["vendor"])
}

func sampleWorkLog() *WorkLog {
	return &WorkLog{
		ID:           41,
		SerialNumber: "IT20240315-101502",
		Description:  "projector not powering on",
		Resolution:   "replaced power brick",
		Category:     "Hardware",
		Department:   "Sales",
		Extension:    "214",
		Reporter:     "Alice",
		Resolver:     "Bob",
		Status:       WorkLogStatusResolved,
		Notes:        "spare brick from storage",
		Extra:        map[string]any{"vendor_ticket": "V-42"},
	}
}
