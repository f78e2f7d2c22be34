package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"podmatch/internal/matcher"
	"podmatch/internal/refdata"
	"podmatch/internal/roster"
)

// The batch surface: read a roster file, write the pod collection. No
// database, no network; validation exclusions and matcher warnings land in
// the emitted report.
func main() {
	var (
		rosterPath   string
		outPath      string
		refdataDir   string
		minSize      int
		maxSize      int
		skipCaptains bool
		randomIDs    bool
	)

	cmd := &cobra.Command{
		Use:           "matcher",
		Short:         "Match a participant roster into pods",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := refdata.LoadCatalog(refdataDir)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(rosterPath)
			if err != nil {
				return fmt.Errorf("read roster: %w", err)
			}
			var raw []roster.Participant
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("parse roster: %w", err)
			}

			valid, rejected := roster.Normalize(raw, catalog)
			res := matcher.Run(valid, catalog, matcher.Options{
				MinSize:      minSize,
				MaxSize:      maxSize,
				SkipCaptains: skipCaptains,
				StableIDs:    !randomIDs,
			})

			pre := make([]matcher.Exclusion, 0, len(rejected))
			for _, ve := range rejected {
				pre = append(pre, matcher.Exclusion{
					ParticipantID: ve.ParticipantID,
					Reason:        ve.Field + ": " + ve.Reason,
				})
			}
			res.Report.Excluded = append(pre, res.Report.Excluded...)

			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			out = append(out, '\n')

			if outPath == "" || outPath == "-" {
				_, err = os.Stdout.Write(out)
				return err
			}
			return os.WriteFile(outPath, out, 0644)
		},
	}

	cmd.Flags().StringVar(&rosterPath, "roster", "", "path to the roster JSON file")
	cmd.Flags().StringVar(&outPath, "out", "-", "output path for the pod collection (- for stdout)")
	cmd.Flags().StringVar(&refdataDir, "refdata", "refdata", "directory with catalog.yaml")
	cmd.Flags().IntVar(&minSize, "min", 5, "minimum pod size")
	cmd.Flags().IntVar(&maxSize, "max", 8, "maximum pod size")
	cmd.Flags().BoolVar(&skipCaptains, "skip-captains", false, "leave captains unset for the approval workflow")
	cmd.Flags().BoolVar(&randomIDs, "random-ids", false, "use random UUIDs for pod IDs instead of stable zone-derived ones")
	_ = cmd.MarkFlagRequired("roster")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
