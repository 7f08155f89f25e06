package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/pkg/database"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending task history migrations and exit",
		RunE:  runMigrate,
	}
	cmd.Flags().Bool("status", false, "list migrations and whether each is applied, without applying")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	statusOnly, err := cmd.Flags().GetBool("status")
	if err != nil {
		return err
	}

	dbCfg := cfg.ToContainerConfig().History
	db, err := database.New(dbCfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	ctx := cmd.Context()

	if statusOnly {
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
		for _, s := range statuses {
			applied := "pending"
			if s.Applied {
				applied = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%03d\t%s\t%s\n", s.Version, s.Name, applied)
		}
		return w.Flush()
	}

	ran, err := migrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("History database is up to date",
		zap.String("path", db.Path()),
		zap.Int("applied", ran))
	return nil
}
