package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/postgres"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/recurrence"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

func newRecurrenceCmd() *cobra.Command {
	recurrenceCmd := &cobra.Command{
		Use:   "recurrence",
		Short: "Recurring task maintenance",
	}

	recurrenceCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Generate the next instance of every completed recurring task once",
		Long: `Runs a single recurrence pass and exits. Use it from an external
scheduler when the in-process scheduler is disabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			// No hub runs in this process, so children are not announced.
			gen := recurrence.NewGenerator(
				postgres.NewPostgresTaskStore(db, logger),
				store.SQLTransactor{DB: db},
				nil,
				logger,
			)
			created, err := gen.ProcessRecurringTasks(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %d recurring task instance(s)\n", len(created))
			for _, t := range created {
				due := "-"
				if t.DueDate != nil {
					due = t.DueDate.Format(time.DateOnly)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  due %s  %s\n", t.ID, due, t.Title)
			}
			return nil
		},
	})
	return recurrenceCmd
}
