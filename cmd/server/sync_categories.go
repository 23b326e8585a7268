package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/services"
)

var syncCategoriesCmd = &cobra.Command{
	Use:   "sync-categories",
	Short: "Rebuild category counts from the tasks",
	Long: `Recompute every category count from the live tasks and replace the
category table with the result. Use it to repair counts after manual
database edits.`,
	RunE: runSyncCategories,
}

func runSyncCategories(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	categories, err := services.NewCategoryService(repository.NewStore(a.db), a.logger).
		Sync(cmd.Context(), services.SystemActor)
	if err != nil {
		return fmt.Errorf("failed to sync categories: %w", err)
	}

	for _, c := range categories {
		fmt.Fprintf(cmd.OutOrStdout(), "%-15s %d\n", c.Name, c.Count)
	}
	return nil
}
