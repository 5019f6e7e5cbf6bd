package cli

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"produtos-api/internal/config"
	"produtos-api/internal/events"
	"produtos-api/internal/pkg/clock"
	"produtos-api/internal/repository"
)

func TestMigrate_RequiresMongoURI(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MONGO_URI", "")

	err := Run(context.Background(), []string{"produtos-api", "migrate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestOpenRepository_FallsBackToMemory(t *testing.T) {
	repo, closeRepo, err := openRepository(context.Background(), &config.Config{}, clock.NewRealClock())
	require.NoError(t, err)
	defer closeRepo()

	assert.IsType(t, &repository.MemoryProductRepository{}, repo)
}

func TestOpenPublisher_DisabledWithoutURL(t *testing.T) {
	publisher := openPublisher(&config.Config{})
	assert.IsType(t, events.NoopPublisher{}, publisher)
	assert.NoError(t, publisher.Close())
}

// chdir is a Go 1.21 stand-in for testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
