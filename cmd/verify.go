package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ebudnikov/dateguard/internal/config"
	"github.com/ebudnikov/dateguard/internal/pipeline"
	"github.com/ebudnikov/dateguard/internal/storage"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Bulk verify photos for duplicates",
	Long: `Walk the photo corpus, fill in missing fingerprints and report photos
with near-duplicates. With --delete-duplicates, exact duplicates are removed,
keeping the earliest upload of each group.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Int64("profile", 0, "Limit the run to one profile ID (0 = all)")
	verifyCmd.Flags().Bool("update-hashes", false, "Compute and persist missing fingerprints")
	verifyCmd.Flags().Bool("delete-duplicates", false, "Delete exact duplicates, keeping the earliest upload")
	verifyCmd.Flags().Bool("dry-run", false, "Report without writing anything")
	verifyCmd.Flags().Int("threshold", 0, "Hamming distance threshold (0 = configured default)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, err := openStore(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	blobs, err := storage.NewFSStore(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("opening photo storage: %w", err)
	}

	opts := pipeline.BulkOptions{
		ProfileID:        mustGetInt64(cmd, "profile"),
		UpdateHashes:     mustGetBool(cmd, "update-hashes"),
		DeleteDuplicates: mustGetBool(cmd, "delete-duplicates"),
		DryRun:           mustGetBool(cmd, "dry-run"),
		Threshold:        mustGetInt(cmd, "threshold"),
	}

	if opts.DryRun {
		color.Yellow("Dry run: nothing will be written")
	}

	var bar *progressbar.ProgressBar
	opts.OnProgress = func(current, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Verifying photos"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("photos"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionFullWidth(),
			)
		}
		bar.Set(current)
	}

	pipe := pipeline.New(store, store, blobs, cfg.Pipeline.Threshold)
	summary, err := pipe.VerifyPhotos(ctx, opts)
	if err != nil {
		return fmt.Errorf("verifying photos: %w", err)
	}
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}

	fmt.Printf("Checked:          %d\n", summary.Checked)
	fmt.Printf("Hashes computed:  %d\n", summary.HashesComputed)
	if summary.WithDuplicates > 0 {
		color.Red("With duplicates:  %d", summary.WithDuplicates)
	} else {
		color.Green("With duplicates:  0")
	}
	fmt.Printf("Deleted:          %d\n", summary.Deleted)
	if summary.Errors > 0 {
		color.Red("Errors:           %d", summary.Errors)
	}
	return nil
}
