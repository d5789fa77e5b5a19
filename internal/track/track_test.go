package track

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricktools/brickpick/pkg/errors"
	"github.com/bricktools/brickpick/pkg/parts"
)

var (
	redBrick = parts.PartKey{PartNumber: "3001", ColorID: 5}
	cellA    = parts.Cell{Key: redBrick, Location: "A"}
	cellB    = parts.Cell{Key: redBrick, Location: "B"}
)

// testPlan allocates 5 of the red brick at A and 8 at B.
func testPlan() *parts.PickupPlan {
	return &parts.PickupPlan{
		Allocations: []parts.Allocation{
			{
				Key:    redBrick,
				Wanted: 13,
				Takes: []parts.Take{
					{Location: "B", Quantity: 8},
					{Location: "A", Quantity: 5},
				},
			},
		},
	}
}

func TestMarkClampsAtAllocation(t *testing.T) {
	tr := New(testPlan(), nil)

	// Two +3 marks against an allocation of 5 clamp at 5, not 6.
	count, err := tr.Mark(cellA, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = tr.Mark(cellA, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 5, tr.Found(cellA))
	assert.Equal(t, Complete, tr.State(cellA))
}

func TestMarkNegativeDeltaAndFloor(t *testing.T) {
	tr := New(testPlan(), nil)

	_, err := tr.Mark(cellA, 4)
	require.NoError(t, err)

	count, err := tr.Mark(cellA, -2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, Partial, tr.State(cellA))

	// Over-correction floors at zero.
	count, err = tr.Mark(cellA, -10)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, Unfound, tr.State(cellA))
}

func TestMarkClampInvariant(t *testing.T) {
	tr := New(testPlan(), nil)

	deltas := []int{3, 7, -1, 100, -100, 2, 9, -3, 5}
	for _, delta := range deltas {
		count, err := tr.Mark(cellB, delta)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, 0)
		assert.LessOrEqual(t, count, tr.Allocated(cellB))
	}
}

func TestMarkUnknownCell(t *testing.T) {
	tr := New(testPlan(), nil)

	_, err := tr.Mark(parts.Cell{Key: redBrick, Location: "nowhere"}, 1)
	assert.True(t, errors.IsNotFound(err))

	_, err = tr.Mark(parts.Cell{Key: parts.PartKey{PartNumber: "3024", ColorID: 0}, Location: "A"}, 1)
	assert.True(t, errors.IsNotFound(err))
}

func TestReset(t *testing.T) {
	tr := New(testPlan(), nil)

	_, err := tr.Mark(cellA, 5)
	require.NoError(t, err)
	require.NoError(t, tr.Reset(cellA))
	assert.Equal(t, 0, tr.Found(cellA))

	assert.True(t, errors.IsNotFound(tr.Reset(parts.Cell{Key: redBrick, Location: "nowhere"})))
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	plan := testPlan()
	tr := New(plan, nil)
	_, err := tr.Mark(cellA, 2)
	require.NoError(t, err)
	_, err = tr.Mark(cellB, 8)
	require.NoError(t, err)

	restored := Restore(tr.Snapshot(), plan, nil)
	assert.Equal(t, tr.Snapshot(), restored.Snapshot())
	assert.Equal(t, 2, restored.Found(cellA))
	assert.Equal(t, 8, restored.Found(cellB))
	assert.Equal(t, Complete, restored.State(cellB))
}

func TestSnapshotDeterministicOrder(t *testing.T) {
	tr := New(testPlan(), nil)
	_, _ = tr.Mark(cellB, 1)
	_, _ = tr.Mark(cellA, 1)

	state := tr.Snapshot()
	require.Len(t, state, 2)
	assert.Equal(t, "A", state[0].Location)
	assert.Equal(t, "B", state[1].Location)
}

func TestRestoreAgainstChangedPlan(t *testing.T) {
	tr := New(testPlan(), nil)
	_, err := tr.Mark(cellA, 5)
	require.NoError(t, err)
	_, err = tr.Mark(cellB, 8)
	require.NoError(t, err)
	state := tr.Snapshot()

	// The new plan only allocates 3 at A and drops B entirely.
	newPlan := &parts.PickupPlan{
		Allocations: []parts.Allocation{
			{Key: redBrick, Wanted: 3, Takes: []parts.Take{{Location: "A", Quantity: 3}}},
		},
	}
	restored := Restore(state, newPlan, nil)
	assert.Equal(t, 3, restored.Found(cellA), "found count clamped to the new allocation")
	assert.Equal(t, 0, restored.Found(cellB), "cell no longer in plan dropped")

	snapshot := restored.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "A", snapshot[0].Location)
}

func TestProgress(t *testing.T) {
	tr := New(testPlan(), nil)
	_, err := tr.Mark(cellA, 2)
	require.NoError(t, err)

	progress := tr.Progress()
	require.Len(t, progress, 2)
	assert.Equal(t, LocationProgress{Location: "A", Allocated: 5, Found: 2}, progress[0])
	assert.Equal(t, LocationProgress{Location: "B", Allocated: 8, Found: 0}, progress[1])
}

func TestSaveLoadState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "found.json")

	tr := New(testPlan(), nil)
	_, err := tr.Mark(cellA, 4)
	require.NoError(t, err)

	require.NoError(t, SaveState(path, tr.Snapshot()))
	assert.NoFileExists(t, path+".tmp")

	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, tr.Snapshot(), loaded)
}

func TestLoadStateMissingFile(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestLoadStateCorrupt(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"garbage.json":     "{not json",
		"bad_version.json": `{"version":99,"found":[]}`,
		"bad_record.json":  `{"version":1,"found":[{"part_num":"","color_id":5,"location":"A","found":1}]}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := LoadState(path)
			assert.True(t, errors.IsCorrupt(err))
		})
	}
}

func TestSaveStateEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "found.json")
	require.NoError(t, SaveState(path, nil))

	state, err := LoadState(path)
	require.NoError(t, err)
	assert.Empty(t, state)
}
