//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/veskrna/face-attend/internal/config"
	"github.com/veskrna/face-attend/internal/database"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	// Run migrations
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestIdentityRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool)

	embedding := make([]float32, 128)
	for i := range embedding {
		embedding[i] = float32(i) / 128.0
	}

	t.Run("InsertAndGet", func(t *testing.T) {
		err := repo.Insert(ctx, database.Identity{
			IdentityID:  "U1",
			DisplayName: "Alice",
			Embedding:   embedding,
			ImageRef:    "profiles/U1",
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Failed to insert identity: %v", err)
		}

		got, err := repo.Get(ctx, "U1")
		if err != nil {
			t.Fatalf("Failed to get identity: %v", err)
		}
		if got == nil {
			t.Fatal("Expected identity, got nil")
		}
		if got.DisplayName != "Alice" {
			t.Errorf("Expected DisplayName 'Alice', got '%s'", got.DisplayName)
		}
		if len(got.Embedding) != 128 {
			t.Errorf("Expected 128 dimensions, got %d", len(got.Embedding))
		}
	})

	t.Run("GetMissingReturnsNil", func(t *testing.T) {
		got, err := repo.Get(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("Failed to get identity: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil, got %+v", got)
		}
	})

	t.Run("DuplicateInsert", func(t *testing.T) {
		err := repo.Insert(ctx, database.Identity{
			IdentityID:  "U1",
			DisplayName: "Alice again",
			Embedding:   embedding,
			CreatedAt:   time.Now().UTC(),
		})
		if !errors.Is(err, database.ErrDuplicateIdentity) {
			t.Errorf("Expected ErrDuplicateIdentity, got %v", err)
		}
	})

	t.Run("ExistsAndCount", func(t *testing.T) {
		exists, err := repo.Exists(ctx, "U1")
		if err != nil {
			t.Fatalf("Failed to check exists: %v", err)
		}
		if !exists {
			t.Error("Expected true, got false")
		}

		exists, err = repo.Exists(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("Failed to check exists: %v", err)
		}
		if exists {
			t.Error("Expected false, got true")
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1, got %d", count)
		}
	})

	t.Run("Dimension", func(t *testing.T) {
		dim, err := repo.Dimension(ctx)
		if err != nil {
			t.Fatalf("Failed to read dimension: %v", err)
		}
		if dim != 128 {
			t.Errorf("Expected dimension 128, got %d", dim)
		}
	})

	t.Run("List", func(t *testing.T) {
		err := repo.Insert(ctx, database.Identity{
			IdentityID:  "U2",
			DisplayName: "Bob",
			Embedding:   embedding,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Failed to insert identity: %v", err)
		}

		identities, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("Failed to list identities: %v", err)
		}
		if len(identities) != 2 {
			t.Errorf("Expected 2 identities, got %d", len(identities))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.Delete(ctx, "U2"); err != nil {
			t.Fatalf("Failed to delete identity: %v", err)
		}
		if err := repo.Delete(ctx, "U2"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestAttendanceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	identities := NewIdentityRepository(pool)
	repo := NewAttendanceRepository(pool)

	embedding := []float32{0.1, 0.2, 0.3}
	if err := identities.Insert(ctx, database.Identity{
		IdentityID:  "U1",
		DisplayName: "Alice",
		Embedding:   embedding,
		ImageRef:    "profiles/U1",
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Failed to insert identity: %v", err)
	}

	timeIn := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	record := database.AttendanceRecord{
		RecordID:        "11111111-1111-1111-1111-111111111111",
		IdentityID:      "U1",
		Date:            "2024-05-01",
		TimeIn:          timeIn,
		Status:          database.StatusPresent,
		ConfidenceScore: 0.97,
		CreatedAt:       time.Now().UTC(),
	}

	t.Run("InsertAndFind", func(t *testing.T) {
		if err := repo.Insert(ctx, record); err != nil {
			t.Fatalf("Failed to insert record: %v", err)
		}

		got, err := repo.FindByIdentityAndDate(ctx, "U1", "2024-05-01")
		if err != nil {
			t.Fatalf("Failed to find record: %v", err)
		}
		if got == nil {
			t.Fatal("Expected record, got nil")
		}
		if got.Date != "2024-05-01" {
			t.Errorf("Expected date '2024-05-01', got '%s'", got.Date)
		}
		if !got.TimeIn.Equal(timeIn) {
			t.Errorf("Expected time_in %v, got %v", timeIn, got.TimeIn)
		}
	})

	t.Run("UniqueConstraint", func(t *testing.T) {
		dup := record
		dup.RecordID = "22222222-2222-2222-2222-222222222222"
		err := repo.Insert(ctx, dup)
		if !errors.Is(err, database.ErrDuplicateAttendance) {
			t.Errorf("Expected ErrDuplicateAttendance, got %v", err)
		}
	})

	t.Run("ListByDateJoinsIdentity", func(t *testing.T) {
		later := record
		later.RecordID = "33333333-3333-3333-3333-333333333333"
		later.IdentityID = "ghost"
		later.TimeIn = timeIn.Add(time.Hour)
		if err := repo.Insert(ctx, later); err != nil {
			t.Fatalf("Failed to insert record: %v", err)
		}

		records, err := repo.ListByDate(ctx, "2024-05-01")
		if err != nil {
			t.Fatalf("Failed to list records: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(records))
		}
		// time_in descending: the later ghost record first
		if records[0].IdentityID != "ghost" {
			t.Errorf("Expected descending time_in order, got %s first", records[0].IdentityID)
		}
		if records[0].DisplayName != "" {
			t.Errorf("Expected empty display name for missing identity, got '%s'", records[0].DisplayName)
		}
		if records[1].DisplayName != "Alice" {
			t.Errorf("Expected joined display name 'Alice', got '%s'", records[1].DisplayName)
		}
	})

	t.Run("Update", func(t *testing.T) {
		newTime := timeIn.Add(30 * time.Minute)
		got, err := repo.Update(ctx, record.RecordID, database.StatusLate, newTime)
		if err != nil {
			t.Fatalf("Failed to update record: %v", err)
		}
		if got.Status != database.StatusLate {
			t.Errorf("Expected status 'late', got '%s'", got.Status)
		}
		if !got.TimeIn.Equal(newTime) {
			t.Errorf("Expected time_in %v, got %v", newTime, got.TimeIn)
		}

		_, err = repo.Update(ctx, "44444444-4444-4444-4444-444444444444", database.StatusLate, newTime)
		if !errors.Is(err, database.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteByIdentity", func(t *testing.T) {
		second := record
		second.RecordID = "55555555-5555-5555-5555-555555555555"
		second.Date = "2024-05-02"
		if err := repo.Insert(ctx, second); err != nil {
			t.Fatalf("Failed to insert record: %v", err)
		}

		deleted, err := repo.DeleteByIdentity(ctx, "U1")
		if err != nil {
			t.Fatalf("Failed to cascade delete: %v", err)
		}
		if deleted != 2 {
			t.Errorf("Expected 2 deleted, got %d", deleted)
		}

		got, err := repo.FindByIdentityAndDate(ctx, "U1", "2024-05-01")
		if err != nil {
			t.Fatalf("Failed to find record: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil after cascade, got %+v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		err := repo.Delete(ctx, "66666666-6666-6666-6666-666666666666")
		if !errors.Is(err, database.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestImageRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewImageRepository(pool)

	t.Run("PutAndGet", func(t *testing.T) {
		if err := repo.Put(ctx, "profiles/U1", []byte("jpeg-bytes"), "image/jpeg"); err != nil {
			t.Fatalf("Failed to store image: %v", err)
		}

		data, contentType, err := repo.Get(ctx, "profiles/U1")
		if err != nil {
			t.Fatalf("Failed to get image: %v", err)
		}
		if string(data) != "jpeg-bytes" {
			t.Errorf("Expected 'jpeg-bytes', got '%s'", data)
		}
		if contentType != "image/jpeg" {
			t.Errorf("Expected 'image/jpeg', got '%s'", contentType)
		}
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		if err := repo.Put(ctx, "profiles/U1", []byte("png-bytes"), "image/png"); err != nil {
			t.Fatalf("Failed to overwrite image: %v", err)
		}
		data, contentType, err := repo.Get(ctx, "profiles/U1")
		if err != nil {
			t.Fatalf("Failed to get image: %v", err)
		}
		if string(data) != "png-bytes" || contentType != "image/png" {
			t.Errorf("Expected overwritten image, got %s (%s)", data, contentType)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, _, err := repo.Get(ctx, "profiles/nope")
		if !errors.Is(err, database.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		if err := repo.Delete(ctx, "profiles/U1"); err != nil {
			t.Fatalf("Failed to delete image: %v", err)
		}
		if err := repo.Delete(ctx, "profiles/U1"); err != nil {
			t.Errorf("Expected idempotent delete, got %v", err)
		}
	})
}

func TestMigrations(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	applied, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("Failed to get applied migrations: %v", err)
	}

	expectedMigrations := []string{
		"0001_init.sql",
	}

	if len(applied) != len(expectedMigrations) {
		t.Errorf("Expected %d migrations, got %d", len(expectedMigrations), len(applied))
	}

	for i, expected := range expectedMigrations {
		if i < len(applied) && applied[i] != expected {
			t.Errorf("Migration %d: expected '%s', got '%s'", i, expected, applied[i])
		}
	}
}
