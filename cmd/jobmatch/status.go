package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobmatch/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the result of the last run",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer sqlStore.Close()

	status, err := sqlStore.Status()
	if err != nil {
		return fmt.Errorf("load status: %w", err)
	}

	if status.LastUpdated == nil {
		fmt.Println("no runs recorded yet")
	} else {
		fmt.Printf("last updated:  %s\n", status.LastUpdated.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Printf("jobs stored:   %d\n", status.JobCount)
	if status.LastError != "" {
		fmt.Printf("last error:    %s\n", status.LastError)
		os.Exit(1)
	}
	return nil
}
