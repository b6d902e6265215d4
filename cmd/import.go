package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/veskrna/face-attend/internal/config"
	"github.com/veskrna/face-attend/internal/database"
	"github.com/veskrna/face-attend/internal/database/postgres"
	"github.com/veskrna/face-attend/internal/enrollment"
	"github.com/veskrna/face-attend/internal/gallery"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import identities with precomputed embeddings",
	Long: `Import identities from a JSON file. The file holds an array of
entries with identity_id, display_name, embedding, and an optional
image_ref. Entries that are already enrolled are skipped.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("file", "", "Path to the JSON file (required)")
	importCmd.MarkFlagRequired("file")
}

type importEntry struct {
	IdentityID  string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Embedding   []float32 `json:"embedding"`
	ImageRef    string    `json:"image_ref"`
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	path := mustGetString(cmd, "file")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}

	var entries []importEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing import file: %w", err)
	}
	if len(entries) == 0 {
		return errors.New("import file contains no entries")
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	g := gallery.New(postgres.NewIdentityRepository(pool))
	svc := enrollment.New(g, postgres.NewImageRepository(pool), nil)

	bar := progressbar.Default(int64(len(entries)), "importing")
	ctx := context.Background()

	var imported, skipped, failed int
	for _, e := range entries {
		_, err := svc.EnrollPrecomputed(ctx, enrollment.PrecomputedRequest{
			IdentityID:  e.IdentityID,
			DisplayName: e.DisplayName,
			Embedding:   e.Embedding,
			ImageRef:    e.ImageRef,
		})
		switch {
		case errors.Is(err, database.ErrDuplicateIdentity):
			skipped++
		case err != nil:
			failed++
			fmt.Fprintf(os.Stderr, "\n%s: %v\n", e.IdentityID, err)
		default:
			imported++
		}
		bar.Add(1)
	}

	fmt.Printf("\nImported %d, skipped %d (already enrolled), failed %d\n", imported, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d entries failed to import", failed)
	}
	return nil
}
