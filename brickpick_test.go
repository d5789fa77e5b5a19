package brickpick

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricktools/brickpick/pkg/errors"
	"github.com/bricktools/brickpick/pkg/parts"
)

type fakeFetcher struct {
	inventories map[string]*parts.SetInventory
	calls       int
}

func (f *fakeFetcher) SetInventory(_ context.Context, setNumber string) (*parts.SetInventory, error) {
	f.calls++
	inv, ok := f.inventories[setNumber]
	if !ok {
		return nil, &errors.FetchError{SetNumber: setNumber, StatusCode: 404, Message: "not found"}
	}
	return inv, nil
}

func brick(key parts.PartKey, qty int, spare bool) parts.InventoryLine {
	return parts.InventoryLine{Key: key, Quantity: qty, IsSpare: spare}
}

func newTestBrickpick(t *testing.T, fetcher *fakeFetcher) Brickpick {
	t.Helper()
	bp, err := New(
		WithCacheDir(filepath.Join(t.TempDir(), "cache")),
		WithFetcher(fetcher),
	)
	require.NoError(t, err)
	return bp
}

func TestNew(t *testing.T) {
	t.Run("rejects empty cache dir", func(t *testing.T) {
		_, err := New(WithCacheDir(""))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("rejects non-positive timeout", func(t *testing.T) {
		_, err := New(WithHTTPTimeout(0))
		require.Error(t, err)
	})

	t.Run("works without fetcher for cached-only use", func(t *testing.T) {
		bp, err := New(WithCacheDir(t.TempDir()))
		require.NoError(t, err)
		cached, err := bp.CachedSets()
		require.NoError(t, err)
		assert.Empty(t, cached)
	})
}

func TestInventory(t *testing.T) {
	redBrick := parts.PartKey{PartNumber: "3001", ColorID: 4}
	fetcher := &fakeFetcher{inventories: map[string]*parts.SetInventory{
		"75192-1": {
			SetNumber: "75192-1",
			SetName:   "Millennium Falcon",
			FetchedAt: time.Now().UTC(),
			Lines:     []parts.InventoryLine{brick(redBrick, 8, false)},
		},
	}}
	bp := newTestBrickpick(t, fetcher)

	t.Run("fetches once and caches", func(t *testing.T) {
		ctx := context.Background()
		inv, err := bp.Inventory(ctx, "75192-1")
		require.NoError(t, err)
		assert.Equal(t, "Millennium Falcon", inv.SetName)

		_, err = bp.Inventory(ctx, "75192-1")
		require.NoError(t, err)
		assert.Equal(t, 1, fetcher.calls)
		cached, err := bp.CachedSets()
		require.NoError(t, err)
		assert.Equal(t, []string{"75192-1"}, cached)
	})

	t.Run("refresh fetches again", func(t *testing.T) {
		_, err := bp.Refresh(context.Background(), "75192-1")
		require.NoError(t, err)
		assert.Equal(t, 2, fetcher.calls)
	})

	t.Run("unknown set surfaces fetch error", func(t *testing.T) {
		_, err := bp.Inventory(context.Background(), "404-1")
		require.Error(t, err)
		assert.True(t, errors.IsFetchFailed(err))
	})
}

func TestPlan(t *testing.T) {
	redBrick := parts.PartKey{PartNumber: "3001", ColorID: 4}
	bluePlate := parts.PartKey{PartNumber: "3020", ColorID: 1}

	fetcher := &fakeFetcher{inventories: map[string]*parts.SetInventory{
		"10030-1": {
			SetNumber: "10030-1",
			SetName:   "Star Destroyer",
			Lines: []parts.InventoryLine{
				brick(redBrick, 4, false),
				brick(redBrick, 1, true),
			},
		},
	}}
	bp := newTestBrickpick(t, fetcher)

	wanted := []parts.WantedItem{
		{Key: redBrick, Quantity: 10},
		{Key: bluePlate, Quantity: 2},
	}
	manual := ManualSource("drawer.csv", []parts.PartRecord{
		{Key: redBrick, Quantity: 8, Location: "Bin A", Source: parts.SourceRef{Kind: parts.SourceManual, ID: "drawer.csv"}},
	})

	t.Run("combines manual and set sources", func(t *testing.T) {
		plan, warnings, err := bp.Plan(context.Background(), wanted, []Source{
			manual,
			SetSource(SetSelection{SetNumber: "10030-1", Multiplier: 1}),
		})
		require.NoError(t, err)
		assert.Empty(t, warnings)
		require.Len(t, plan.Allocations, 2)

		red := plan.Allocations[0]
		assert.Equal(t, redBrick, red.Key)
		assert.Equal(t, 10, red.Taken())
		assert.Equal(t, parts.StatusFulfilled, red.Status())
		require.Len(t, red.Takes, 2)
		assert.Equal(t, "Bin A", red.Takes[0].Location)
		assert.Equal(t, 8, red.Takes[0].Quantity)
		assert.Equal(t, "Set 10030-1", red.Takes[1].Location)
		assert.Equal(t, 2, red.Takes[1].Quantity)

		blue := plan.Allocations[1]
		assert.Equal(t, parts.StatusMissing, blue.Status())
		assert.Equal(t, 2, blue.Unfulfilled)
	})

	t.Run("failed set becomes warning not error", func(t *testing.T) {
		plan, warnings, err := bp.Plan(context.Background(), wanted, []Source{
			manual,
			SetSource(SetSelection{SetNumber: "404-1", Multiplier: 1}),
		})
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t, "404-1", warnings[0].Source)
		assert.True(t, errors.IsFetchFailed(warnings[0].Err))

		red := plan.Allocations[0]
		assert.Equal(t, 8, red.Taken())
		assert.Equal(t, 2, red.Unfulfilled)
	})

	t.Run("duplicate wanted keys share the inventory", func(t *testing.T) {
		duplicated := []parts.WantedItem{
			{Key: redBrick, Quantity: 8},
			{Key: redBrick, Quantity: 8},
		}
		plan, _, err := bp.Plan(context.Background(), duplicated, []Source{manual})
		require.NoError(t, err)
		require.Len(t, plan.Allocations, 1)

		merged := plan.Allocations[0]
		assert.Equal(t, 16, merged.Wanted)
		assert.Equal(t, 8, merged.Taken())
		assert.Equal(t, 8, merged.Unfulfilled)
	})

	t.Run("rejects invalid wanted item", func(t *testing.T) {
		_, _, err := bp.Plan(context.Background(), []parts.WantedItem{{Key: redBrick, Quantity: 0}}, nil)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("rejects unnamed manual source", func(t *testing.T) {
		_, _, err := bp.Plan(context.Background(), wanted, []Source{ManualSource("", nil)})
		require.Error(t, err)
	})
}

func TestPlanPersistence(t *testing.T) {
	redBrick := parts.PartKey{PartNumber: "3001", ColorID: 4}
	plan := &parts.PickupPlan{Allocations: []parts.Allocation{{
		Key:    redBrick,
		Wanted: 10,
		Takes: []parts.Take{
			{Location: "Bin A", Quantity: 8},
			{Location: "Set 10030-1", Quantity: 2},
		},
	}}}

	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan.json")
		require.NoError(t, SavePlan(path, plan))

		got, err := LoadPlan(path)
		require.NoError(t, err)
		assert.Equal(t, plan, got)
	})

	t.Run("missing file yields not found", func(t *testing.T) {
		_, err := LoadPlan(filepath.Join(t.TempDir(), "plan.json"))
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan.json")
		require.NoError(t, SavePlan(path, plan))
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := LoadPlan(path)
		require.Error(t, err)
		assert.True(t, errors.IsCorrupt(err))
	})

	t.Run("unsupported version", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "allocations": []}`), 0o644))

		_, err := LoadPlan(path)
		require.Error(t, err)
		assert.True(t, errors.IsCorrupt(err))
	})
}
