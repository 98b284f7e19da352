package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobmatch/internal/config"
	"github.com/amishk599/jobmatch/internal/model"
	"github.com/amishk599/jobmatch/internal/store"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show the board sources the next run will fetch",
	RunE:  runSources,
}

var clearSources bool

func init() {
	sourcesCmd.Flags().BoolVar(&clearSources, "clear", false, "forget the stored (discovered) source list")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer sqlStore.Close()

	if clearSources {
		if err := sqlStore.SaveSources(model.SourceList{}); err != nil {
			return fmt.Errorf("clear sources: %w", err)
		}
		fmt.Println("stored source list cleared")
		return nil
	}

	stored, err := sqlStore.LoadSources()
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	list := stored
	origin := "stored (discovered)"
	if list.Empty() {
		list = cfg.Sources
		origin = "config"
	}
	if list.Empty() {
		list = config.DefaultSources()
		origin = "built-in defaults"
	}

	fmt.Printf("source list origin: %s\n", origin)
	for _, b := range list.Greenhouse {
		fmt.Printf("  greenhouse  %-20s %s\n", b.Token, b.Label)
	}
	for _, b := range list.Lever {
		fmt.Printf("  lever       %-20s %s\n", b.Token, b.Label)
	}
	return nil
}
