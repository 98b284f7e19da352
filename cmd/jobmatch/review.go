package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobmatch/internal/ai"
	"github.com/amishk599/jobmatch/internal/docs"
	"github.com/amishk599/jobmatch/internal/model"
	"github.com/amishk599/jobmatch/internal/review"
	"github.com/amishk599/jobmatch/internal/store"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse the job collection and shortlist interactively",
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer sqlStore.Close()

	jobs, err := sqlStore.LoadJobs()
	if err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}
	if len(jobs) == 0 {
		fmt.Println("no jobs stored yet, run `jobmatch run` first")
		return nil
	}

	shortlist, err := sqlStore.LoadShortlist()
	if err != nil {
		return fmt.Errorf("load shortlist: %w", err)
	}

	var coverFn review.CoverLetterFunc
	if provider := setupProvider(cfg); provider != nil && cfg.CoverTemplateDoc != "" {
		httpClient := &http.Client{Timeout: 30 * time.Second}
		docProvider := docs.NewGoogleDocProvider(httpClient)
		coverFn = func(ctx context.Context, job model.Job) (string, error) {
			template, err := docProvider.FetchText(ctx, cfg.CoverTemplateDoc)
			if err != nil {
				return "", fmt.Errorf("fetch template: %w", err)
			}
			return ai.GenerateCoverLetter(ctx, provider, job, template)
		}
	}

	return review.Run(jobs, shortlist, coverFn)
}
