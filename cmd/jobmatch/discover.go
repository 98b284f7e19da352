package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobmatch/internal/docs"
	"github.com/amishk599/jobmatch/internal/store"
)

var saveDiscovered bool

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover job board sources from your resume",
	Long:  "Ask the LLM for boards likely to match your resume, verify each against the live board APIs, and print the survivors.",
	RunE:  runDiscover,
}

func init() {
	discoverCmd.Flags().BoolVar(&saveDiscovered, "save", false, "persist the discovered source list for future runs")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if !cfg.AI.Enabled {
		return fmt.Errorf("discover requires ai.enabled: true in config")
	}
	if cfg.ResumeDoc == "" {
		return fmt.Errorf("discover requires resume_doc in config")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resumeText, err := docs.NewGoogleDocProvider(httpClient).FetchText(ctx, cfg.ResumeDoc)
	if err != nil {
		return fmt.Errorf("fetch resume: %w", err)
	}

	list := setupDiscoverer(cfg, httpClient, logger).Discover(ctx, resumeText)

	if !list.ResumeDerived {
		fmt.Println("discovery fell back to the default source list:")
	}
	for _, b := range list.Greenhouse {
		fmt.Printf("  greenhouse  %s\n", b.Token)
	}
	for _, b := range list.Lever {
		fmt.Printf("  lever       %s\n", b.Token)
	}

	if !saveDiscovered {
		return nil
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer sqlStore.Close()

	if err := sqlStore.SaveSources(list); err != nil {
		return fmt.Errorf("save sources: %w", err)
	}
	fmt.Fprintln(os.Stdout, "source list saved")
	return nil
}
