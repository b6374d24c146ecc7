package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/NickFlach/pitchfork-echo-studio-sub004/internal/assets"
)

var checkJSON bool

var errBundleUnusable = errors.New("bundle is missing its entry document")

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "output JSON report")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the asset root and print a bundle inventory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := assets.OpenDir(cfg.Assets.Root)
		if err != nil {
			return err
		}
		defer store.Close()

		inv, err := assets.Scan(store.FS(), cfg.Assets.Root, cfg.Assets.Entry)
		if err != nil {
			return err
		}

		if checkJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(inv); err != nil {
				return err
			}
		} else {
			writeInventory(cmd.OutOrStdout(), inv)
		}

		if !inv.EntryPresent {
			return fmt.Errorf("%s: %w", cfg.Assets.Entry, errBundleUnusable)
		}
		return nil
	},
}

func writeInventory(out io.Writer, inv *assets.Inventory) {
	fmt.Fprintf(out, "root:  %s\n", inv.Root)
	status := "ok"
	if !inv.EntryPresent {
		status = "MISSING"
	}
	fmt.Fprintf(out, "entry: %s (%s)\n", inv.Entry, status)
	fmt.Fprintf(out, "files: %d, %d bytes\n\n", inv.Files, inv.Bytes)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTENT TYPE\tFILES\tBYTES")
	for _, t := range inv.Types {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", t.ContentType, t.Files, t.Bytes)
	}
	_ = tw.Flush()
}
