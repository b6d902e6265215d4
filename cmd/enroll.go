package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/veskrna/face-attend/internal/config"
	"github.com/veskrna/face-attend/internal/database"
	"github.com/veskrna/face-attend/internal/database/postgres"
	"github.com/veskrna/face-attend/internal/embedder"
	"github.com/veskrna/face-attend/internal/enrollment"
	"github.com/veskrna/face-attend/internal/gallery"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll an identity from a photo",
	Long: `Enroll a new identity into the gallery from a photo file.
The photo is sent to the embedder sidecar for face detection; the
strongest detected face becomes the enrolled embedding.`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("id", "", "Identity ID (required)")
	enrollCmd.Flags().String("name", "", "Display name (required)")
	enrollCmd.Flags().String("photo", "", "Path to the photo file (required)")
	enrollCmd.MarkFlagRequired("id")
	enrollCmd.MarkFlagRequired("name")
	enrollCmd.MarkFlagRequired("photo")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	identityID := mustGetString(cmd, "id")
	displayName := mustGetString(cmd, "name")
	photoPath := mustGetString(cmd, "photo")

	image, err := os.ReadFile(photoPath)
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Enrollment from a photo needs the sidecar; fail fast without it.
	detector := embedder.NewHTTPDetector(&cfg.Embedder)
	if err := detector.Init(ctx); err != nil {
		return fmt.Errorf("embedder sidecar is required for photo enrollment: %w", err)
	}

	g := gallery.New(postgres.NewIdentityRepository(pool))
	svc := enrollment.New(g, postgres.NewImageRepository(pool), detector)

	identity, err := svc.EnrollImage(ctx, enrollment.ImageRequest{
		IdentityID:  identityID,
		DisplayName: displayName,
		Image:       image,
		ContentType: contentTypeFor(image),
	})
	switch {
	case errors.Is(err, database.ErrDuplicateIdentity):
		return fmt.Errorf("identity %s is already enrolled", identityID)
	case errors.Is(err, enrollment.ErrNoFaceDetected):
		return fmt.Errorf("no face detected in %s", photoPath)
	case err != nil:
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Enrolled %s (%s), embedding dimension %d\n",
		identity.DisplayName, identity.IdentityID, len(identity.Embedding))
	return nil
}

// contentTypeFor sniffs the image content type from its first bytes.
func contentTypeFor(image []byte) string {
	return http.DetectContentType(image)
}
