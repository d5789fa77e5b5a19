package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bricktools/brickpick/internal/ingest"
)

var (
	setsAddCopies int
	setsAddSpares bool
)

var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "Manage the owned-sets manifest",
	Long: `Sets maintains the manifest of sets you own. Sets listed there can be
pulled into a plan all at once with "brickpick plan --own-sets".`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSetsList(cmd)
	},
}

var setsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List owned sets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSetsList(cmd)
	},
}

var setsAddCmd = &cobra.Command{
	Use:   "add <set-number>",
	Short: "Add or update an owned set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := ingest.LoadManifest(cfg.ManifestPath())
		if err != nil {
			return err
		}
		manifest.Add(ingest.OwnedSet{
			SetNumber:     args[0],
			Quantity:      setsAddCopies,
			IncludeSpares: setsAddSpares,
		})
		return ingest.SaveManifest(cfg.ManifestPath(), manifest)
	},
}

var setsRemoveCmd = &cobra.Command{
	Use:   "remove <set-number>",
	Short: "Remove an owned set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := ingest.LoadManifest(cfg.ManifestPath())
		if err != nil {
			return err
		}
		if !manifest.Remove(args[0]) {
			return fmt.Errorf("set %s is not in the manifest", args[0])
		}
		return ingest.SaveManifest(cfg.ManifestPath(), manifest)
	},
}

var setsImportCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import owned sets from a CSV file",
	Long: `Import reads a CSV with columns "Set number", "Quantity", and
"Includes spares" and merges every valid row into the manifest. Existing
entries with the same set number are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, rowErrs, err := ingest.ReadOwnedSetsFile(args[0])
		if err != nil {
			return err
		}
		reportRowErrors(args[0], rowErrs)

		manifest, err := ingest.LoadManifest(cfg.ManifestPath())
		if err != nil {
			return err
		}
		for _, s := range sets {
			manifest.Add(s)
		}
		if err := ingest.SaveManifest(cfg.ManifestPath(), manifest); err != nil {
			return err
		}
		cmd.Printf("Imported %d sets\n", len(sets))
		return nil
	},
}

func init() {
	setsAddCmd.Flags().IntVar(&setsAddCopies, "copies", 1, "how many copies are owned")
	setsAddCmd.Flags().BoolVar(&setsAddSpares, "spares", false, "count spare parts as available")
	setsCmd.AddCommand(setsListCmd, setsAddCmd, setsRemoveCmd, setsImportCmd)
	rootCmd.AddCommand(setsCmd)
}

func runSetsList(cmd *cobra.Command) error {
	manifest, err := ingest.LoadManifest(cfg.ManifestPath())
	if err != nil {
		return err
	}
	if len(manifest.Sets) == 0 {
		cmd.Println("No owned sets. Add one with \"brickpick sets add\".")
		return nil
	}

	bp, err := newBrickpick()
	if err != nil {
		return err
	}
	cachedSets, err := bp.CachedSets()
	if err != nil {
		return err
	}
	cached := make(map[string]bool)
	for _, setNumber := range cachedSets {
		cached[setNumber] = true
	}

	rows := make([][]string, 0, len(manifest.Sets))
	for _, s := range manifest.Sets {
		spares := "no"
		if s.IncludeSpares {
			spares = "yes"
		}
		state := "not fetched"
		if cached[s.SetNumber] {
			state = "cached"
		}
		rows = append(rows, []string{
			s.SetNumber,
			strconv.Itoa(s.Quantity),
			spares,
			state,
		})
	}
	cmd.Println(renderTable(
		[]string{"Set", "Copies", "Spares", "Inventory"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}
