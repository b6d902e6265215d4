package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/veskrna/face-attend/internal/attendance"
	"github.com/veskrna/face-attend/internal/config"
	"github.com/veskrna/face-attend/internal/database/postgres"
	"github.com/veskrna/face-attend/internal/embedder"
	"github.com/veskrna/face-attend/internal/enrollment"
	"github.com/veskrna/face-attend/internal/gallery"
	"github.com/veskrna/face-attend/internal/recognition"
	"github.com/veskrna/face-attend/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long: `Start the Face Attend API server.
The server exposes the gallery, recognition, and attendance endpoints
consumed by the enrollment admin and the kiosk scanner.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Float64("threshold", 0, "override the configured match threshold")
	rootCmd.AddCommand(serveCmd)
}

// buildServices wires the domain services over a connection pool,
// including the gallery removal cascade (attendance records and the
// stored profile image go with the identity).
func buildServices(pool *postgres.Pool, cfg *config.Config, detector embedder.Detector) web.Services {
	identityRepo := postgres.NewIdentityRepository(pool)
	attendanceRepo := postgres.NewAttendanceRepository(pool)
	imageRepo := postgres.NewImageRepository(pool)

	g := gallery.New(identityRepo)
	ledger := attendance.NewLedger(attendanceRepo)

	g.OnRemove(func(ctx context.Context, identityID string) error {
		deleted, err := ledger.CascadeDeleteForIdentity(ctx, identityID)
		if err != nil {
			return err
		}
		if deleted > 0 {
			fmt.Printf("Removed %d attendance record(s) for %s\n", deleted, identityID)
		}
		return nil
	})
	g.OnRemove(func(ctx context.Context, identityID string) error {
		// The gallery row is already gone, so the image ref cannot be
		// read back; enrollment always stores under profiles/<id>.
		return imageRepo.Delete(ctx, "profiles/"+identityID)
	})

	return web.Services{
		Gallery:    g,
		Enrollment: enrollment.New(g, imageRepo, detector),
		Ledger:     ledger,
		Images:     imageRepo,
		Detector:   detector,
		Matcher:    recognition.Matcher{Threshold: cfg.Match.Threshold},
	}
}

// initDetector probes the embedder sidecar. A failed probe is not fatal:
// precomputed enrollment and server-side matching work without it, and
// the health endpoint reports the state.
func initDetector(cfg *config.Config) embedder.Detector {
	detector := embedder.NewHTTPDetector(&cfg.Embedder)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := detector.Init(ctx); err != nil {
		fmt.Printf("Warning: embedder sidecar not ready: %v\n", err)
		fmt.Printf("Image enrollment is unavailable until it recovers\n")
	} else {
		fmt.Printf("Embedder ready (dimension %d)\n", detector.Dimension())
	}
	return detector
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if threshold := mustGetFloat64(cmd, "threshold"); threshold > 0 {
		cfg.Match.Threshold = threshold
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	detector := initDetector(cfg)
	server := web.NewServer(cfg, buildServices(pool, cfg, detector))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Attend API on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Match threshold: %.2f\n", cfg.Match.Threshold)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
