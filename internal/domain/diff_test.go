package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiffSnapshotsReportsChangedFieldsOnly(t *testing.T) {
	before := Snapshot{
		"description": "printer jammed",
		"resolution":  "",
		"category":    "Hardware",
		"department":  "IT",
		"status":      "IN_PROGRESS",
	}
	after := Snapshot{
		"description": "printer jammed",
		"resolution":  "cleared paper path",
		"category":    "Hardware",
		"department":  "IT",
		"status":      "RESOLVED",
	}

	changes := DiffSnapshots(before, after)
	require.Len(t, changes, 2)

	require.Equal(t, "resolution", changes[0].Field)
	require.Equal(t, "Resolution", changes[0].Label)
	require.Equal(t, "", changes[0].OldValue)
	require.Equal(t, "cleared paper path", changes[0].NewValue)

	require.Equal(t, "status", changes[1].Field)
	require.Equal(t, "IN_PROGRESS", changes[1].OldValue)
	require.Equal(t, "RESOLVED", changes[1].NewValue)
}

func TestDiffSnapshotsNilSide(t *testing.T) {
	snap := Snapshot{"description": "x"}
	require.Nil(t, DiffSnapshots(nil, snap))
	require.Nil(t, DiffSnapshots(snap, nil))
	require.Nil(t, DiffSnapshots(nil, nil))
}

func TestDiffSnapshotsIdenticalSnapshots(t *testing.T) {
	snap := Snapshot{
		"description": "monitor flicker",
		"category":    "Hardware",
	}
	require.Empty(t, DiffSnapshots(snap, snap))
}

func TestDiffSnapshotsIgnoresFieldsOutsideFixedSet(t *testing.T) {
	before := Snapshot{"description": "a", "vendor_ticket": "V-1"}
	after := Snapshot{"description": "a", "vendor_ticket": "V-2"}
	require.Empty(t, DiffSnapshots(before, after))
}

func TestDiffSnapshotsMissingKeyTreatedAsEmpty(t *testing.T) {
	before := Snapshot{"description": "a"}
	after := Snapshot{"description": "a", "notes": "follow up with vendor"}

	changes := DiffSnapshots(before, after)
	require.Len(t, changes, 1)
	require.Equal(t, "notes", changes[0].Field)
	require.Equal(t, "", changes[0].OldValue)
	require.Equal(t, "follow up with vendor", changes[0].NewValue)
}
