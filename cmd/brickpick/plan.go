package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bricktools/brickpick"
	"github.com/bricktools/brickpick/internal/ingest"
	"github.com/bricktools/brickpick/pkg/parts"
)

var (
	planWantedFile      string
	planCollectionFiles []string
	planSets            []string
	planUseManifest     bool
	planJSON            bool
	planNoSave          bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build a pickup plan for a wanted list",
	Long: `Plan reconciles a wanted-list CSV against your part sources and
prints where to pull each part from.

Sources are manual collection CSV files (--collection, repeatable),
individual sets (--set 75192-1, --set 10030-1:2 for two copies, append
+spares to count spare parts), and the owned-sets manifest (--own-sets).
Sources that fail to load are reported as warnings and skipped.

The plan is saved to the data directory so that later "brickpick found"
invocations can mark progress against it.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planWantedFile, "wanted", "w", "", "wanted-list CSV file (required)")
	planCmd.Flags().StringArrayVarP(&planCollectionFiles, "collection", "c", nil, "manual collection CSV file (repeatable)")
	planCmd.Flags().StringArrayVarP(&planSets, "set", "s", nil, "owned set, as NUMBER[:COPIES][+spares] (repeatable)")
	planCmd.Flags().BoolVar(&planUseManifest, "own-sets", false, "include every set from the owned-sets manifest")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "print the plan as JSON")
	planCmd.Flags().BoolVar(&planNoSave, "no-save", false, "do not persist the plan for found tracking")
	cobra.CheckErr(planCmd.MarkFlagRequired("wanted"))
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	wanted, rowErrs, err := ingest.ReadWantedListFile(planWantedFile)
	if err != nil {
		return err
	}
	reportRowErrors(planWantedFile, rowErrs)
	if len(wanted) == 0 {
		return fmt.Errorf("wanted list %s has no usable rows", planWantedFile)
	}

	sources, err := collectSources()
	if err != nil {
		return err
	}

	bp, err := newBrickpick()
	if err != nil {
		return err
	}

	plan, warnings, err := bp.Plan(cmd.Context(), wanted, sources)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn().Str("source", w.Source).Err(w.Err).Msg("source skipped")
	}

	if !planNoSave {
		if err := brickpick.SavePlan(cfg.PlanPath(), plan); err != nil {
			return err
		}
		logger.Debug().Str("path", cfg.PlanPath()).Msg("plan saved")
	}

	if planJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(plan)
	}

	printPlan(cmd, plan)
	return nil
}

// collectSources assembles the part sources from flags and, optionally,
// the owned-sets manifest.
func collectSources() ([]brickpick.Source, error) {
	var sources []brickpick.Source

	for _, path := range planCollectionFiles {
		records, rowErrs, err := ingest.ReadCollectionFile(path)
		if err != nil {
			return nil, err
		}
		reportRowErrors(path, rowErrs)
		sources = append(sources, brickpick.ManualSource(path, records))
	}

	for _, spec := range planSets {
		sel, err := parseSetSpec(spec)
		if err != nil {
			return nil, err
		}
		sources = append(sources, brickpick.SetSource(sel))
	}

	if planUseManifest {
		manifest, err := ingest.LoadManifest(cfg.ManifestPath())
		if err != nil {
			return nil, err
		}
		for _, owned := range manifest.Sets {
			sources = append(sources, brickpick.SetSource(brickpick.SetSelection{
				SetNumber:     owned.SetNumber,
				Multiplier:    owned.Quantity,
				IncludeSpares: owned.IncludeSpares,
			}))
		}
	}

	return sources, nil
}

// parseSetSpec parses NUMBER[:COPIES][+spares], e.g. "10030-1:2+spares".
func parseSetSpec(spec string) (brickpick.SetSelection, error) {
	sel := brickpick.SetSelection{Multiplier: 1}

	rest, spares := strings.CutSuffix(spec, "+spares")
	sel.IncludeSpares = spares

	if number, copies, ok := strings.Cut(rest, ":"); ok {
		n, err := strconv.Atoi(copies)
		if err != nil || n < 1 {
			return sel, fmt.Errorf("invalid set copies in %q", spec)
		}
		sel.SetNumber = number
		sel.Multiplier = n
	} else {
		sel.SetNumber = rest
	}
	if sel.SetNumber == "" {
		return sel, fmt.Errorf("empty set number in %q", spec)
	}
	return sel, nil
}

func reportRowErrors(path string, rowErrs []ingest.RowError) {
	for _, re := range rowErrs {
		logger.Warn().Str("file", path).Int("line", re.Line).Err(re.Err).Msg("row skipped")
	}
}

// printPlan renders the per-location pickup view followed by the parts
// that could not be fulfilled.
func printPlan(cmd *cobra.Command, plan *parts.PickupPlan) {
	for _, group := range plan.ByLocation() {
		rows := make([][]string, 0, len(group.Items))
		for _, item := range group.Items {
			rows = append(rows, []string{
				item.Key.PartNumber,
				strconv.Itoa(item.Key.ColorID),
				strconv.Itoa(item.Quantity),
			})
		}
		cmd.Printf("%s\n", group.Location)
		cmd.Println(renderTable(
			[]string{"Part", "Color", "Pull"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight},
		))
	}

	var missing [][]string
	for _, a := range plan.Allocations {
		if a.Unfulfilled > 0 {
			missing = append(missing, []string{
				a.Key.PartNumber,
				strconv.Itoa(a.Key.ColorID),
				strconv.Itoa(a.Wanted),
				strconv.Itoa(a.Unfulfilled),
			})
		}
	}
	if len(missing) > 0 {
		cmd.Println("Still needed")
		cmd.Println(renderTable(
			[]string{"Part", "Color", "Wanted", "Missing"},
			missing,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
		))
	}

	cmd.Printf("Wanted %d pieces, unfulfilled %d\n",
		plan.TotalWanted(), plan.TotalUnfulfilled())
}
