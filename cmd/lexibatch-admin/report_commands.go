package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newDatabasesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List the user's vocabulary databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService(cmd.Context())
			if err != nil {
				return err
			}
			dbs, err := svc.ListDatabases(cmd.Context(), ctx.userID())
			if err != nil {
				return err
			}
			if len(dbs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No databases")
				return nil
			}
			rows := make([][]string, 0, len(dbs))
			for _, db := range dbs {
				rows = append(rows, []string{
					strconv.FormatInt(db.ID, 10),
					db.Name,
					db.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newBatchesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "batches <database-id>",
		Short: "List batches and their progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbID, err := parseDatabaseID(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.ensureService(cmd.Context())
			if err != nil {
				return err
			}
			batches, err := svc.ListBatches(cmd.Context(), ctx.userID(), dbID)
			if err != nil {
				return err
			}
			if len(batches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No batches")
				return nil
			}
			rows := make([][]string, 0, len(batches))
			for _, b := range batches {
				rows = append(rows, []string{
					strconv.Itoa(b.BatchNumber),
					strconv.Itoa(b.TotalWords),
					strconv.Itoa(b.WordsLearnedCount),
					fmt.Sprintf("%.0f%%", b.CompletionRatio()*100),
					yesNo(b.IsActive),
					yesNo(b.IsCompleted),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Batch", "Words", "Learned", "Progress", "Active", "Completed"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <database-id>",
		Short: "Show batch and card statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbID, err := parseDatabaseID(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.ensureService(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := svc.GetStats(cmd.Context(), ctx.userID(), dbID)
			if err != nil {
				return err
			}
			current := "none"
			if stats.CurrentBatch != nil {
				current = strconv.Itoa(stats.CurrentBatch.BatchNumber)
			}
			rows := [][]string{
				{"Batches", strconv.Itoa(stats.TotalBatches)},
				{"Completed batches", strconv.Itoa(stats.CompletedBatches)},
				{"Current batch", current},
				{"Ready for next", yesNo(stats.ReadyForNext)},
				{"Cards", strconv.Itoa(stats.Total)},
				{"Due", strconv.Itoa(stats.Due)},
				{"New", strconv.Itoa(stats.New)},
				{"Learning", strconv.Itoa(stats.Learning)},
				{"Review", strconv.Itoa(stats.Review)},
				{"Mature", strconv.Itoa(stats.Mature)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Metric", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
