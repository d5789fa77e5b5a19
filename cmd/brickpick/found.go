package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bricktools/brickpick"
	"github.com/bricktools/brickpick/internal/track"
	"github.com/bricktools/brickpick/pkg/errors"
	"github.com/bricktools/brickpick/pkg/parts"
)

var foundCount int

var foundCmd = &cobra.Command{
	Use:   "found",
	Short: "Track which planned parts have been retrieved",
	Long: `Found marks progress against the most recent pickup plan. Without a
subcommand it shows per-location progress.

Cells are addressed as PART:COLOR@LOCATION, matching the plan output,
e.g. 3001:4@"Bin A". Counts are clamped to the planned quantity.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tracker, _, err := loadTracker()
		if err != nil {
			return err
		}
		printProgress(cmd, tracker)
		return nil
	},
}

var foundMarkCmd = &cobra.Command{
	Use:   "mark <cell>...",
	Short: "Mark parts at a location as found",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, plan, err := loadTracker()
		if err != nil {
			return err
		}

		for _, arg := range args {
			cell, err := parts.ParseCell(arg)
			if err != nil {
				return err
			}
			count, err := tracker.Mark(cell, foundCount)
			if err != nil {
				if errors.IsNotFound(err) {
					return fmt.Errorf("cell %s is not part of the current plan", arg)
				}
				return err
			}
			cmd.Printf("%s: %d of %d found\n", arg, count, plan.AllocatedAt(cell.Key, cell.Location))
		}

		return track.SaveState(cfg.FoundStatePath(), tracker.Snapshot())
	},
}

var foundResetCmd = &cobra.Command{
	Use:   "reset [<cell>...]",
	Short: "Clear found progress for cells, or for the whole plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, _, err := loadTracker()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return track.SaveState(cfg.FoundStatePath(), nil)
		}
		for _, arg := range args {
			cell, err := parts.ParseCell(arg)
			if err != nil {
				return err
			}
			if err := tracker.Reset(cell); err != nil {
				return fmt.Errorf("cell %s is not part of the current plan", arg)
			}
		}
		return track.SaveState(cfg.FoundStatePath(), tracker.Snapshot())
	},
}

func init() {
	foundMarkCmd.Flags().IntVarP(&foundCount, "count", "n", 1, "number of pieces found (negative to undo)")
	foundCmd.AddCommand(foundMarkCmd)
	foundCmd.AddCommand(foundResetCmd)
	rootCmd.AddCommand(foundCmd)
}

// loadTracker restores found progress against the saved plan.
func loadTracker() (*track.Tracker, *parts.PickupPlan, error) {
	plan, err := brickpick.LoadPlan(cfg.PlanPath())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil, fmt.Errorf("no saved plan; run \"brickpick plan\" first")
		}
		return nil, nil, err
	}

	state, err := track.LoadState(cfg.FoundStatePath())
	if err != nil {
		if !errors.IsCorrupt(err) {
			return nil, nil, err
		}
		logger.Warn().Err(err).Msg("found state unreadable, starting from empty")
		state = nil
	}
	return track.Restore(state, plan, &logger), plan, nil
}

func printProgress(cmd *cobra.Command, tracker *track.Tracker) {
	progress := tracker.Progress()
	if len(progress) == 0 {
		cmd.Println("The current plan has nothing to pick up.")
		return
	}

	rows := make([][]string, 0, len(progress))
	var allocated, found int
	for _, p := range progress {
		rows = append(rows, []string{
			p.Location,
			strconv.Itoa(p.Found),
			strconv.Itoa(p.Allocated),
		})
		allocated += p.Allocated
		found += p.Found
	}
	cmd.Println(renderTable(
		[]string{"Location", "Found", "Planned"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	cmd.Printf("Total: %d of %d pieces found\n", found, allocated)
}
