package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var fetchRefresh bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <set-number>...",
	Short: "Fetch and cache set inventories from Rebrickable",
	Long: `Fetch downloads the part inventory of one or more sets from the
Rebrickable API and stores them in the local cache. Later plan runs read
from the cache without touching the network.

Set numbers use Rebrickable form, e.g. 75192-1.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bp, err := newBrickpick()
		if err != nil {
			return err
		}

		var failed int
		rows := make([][]string, 0, len(args))
		for _, setNumber := range args {
			inventory := bp.Inventory
			if fetchRefresh {
				inventory = bp.Refresh
			}
			inv, err := inventory(cmd.Context(), setNumber)
			if err != nil {
				logger.Error().Err(err).Str("set", setNumber).Msg("fetch failed")
				failed++
				continue
			}
			pieces := 0
			for _, line := range inv.Lines {
				if !line.IsSpare {
					pieces += line.Quantity
				}
			}
			rows = append(rows, []string{
				inv.SetNumber,
				inv.SetName,
				strconv.Itoa(inv.PartCount()),
				strconv.Itoa(pieces),
			})
		}

		if len(rows) > 0 {
			cmd.Println(renderTable(
				[]string{"Set", "Name", "Lines", "Pieces"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sets failed to fetch", failed, len(args))
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "discard cached inventories and fetch again")
	rootCmd.AddCommand(fetchCmd)
}
