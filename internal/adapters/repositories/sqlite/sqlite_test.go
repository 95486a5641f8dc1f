package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hephylab/tableService/internal/config"
	"github.com/hephylab/tableService/internal/domain/entities"
	"github.com/hephylab/tableService/internal/interfaces"
	"github.com/hephylab/tableService/internal/middleware/logging"
)

func newTestRepository(t *testing.T) interfaces.TablePositionRepository {
	t.Helper()
	cfg := &config.AppConfig{
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	logger := logging.NewLogger(&logging.Config{Enabled: false}, "TEST")
	repo, err := NewRepository(cfg, logger)
	require.NoError(t, err)
	return repo
}

func TestRepositoryCRUD(t *testing.T) {
	repo := newTestRepository(t)

	position := &entities.TablePosition{
		ID:      "pos-1",
		Name:    "sample holder",
		X:       10.5,
		Y:       -2,
		Z:       0.25,
		Comment: "front left corner",
	}
	require.NoError(t, repo.Create(position))

	got, err := repo.GetByID("pos-1")
	require.NoError(t, err)
	require.Equal(t, "sample holder", got.Name)
	require.Equal(t, 10.5, got.X)

	got.Name = "sample holder A"
	got.Z = 1.5
	require.NoError(t, repo.Update(got))

	got, err = repo.GetByID("pos-1")
	require.NoError(t, err)
	require.Equal(t, "sample holder A", got.Name)
	require.Equal(t, 1.5, got.Z)

	require.NoError(t, repo.Delete("pos-1"))
	_, err = repo.GetByID("pos-1")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryGetAllSorted(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Create(&entities.TablePosition{ID: "b", Name: "beta"}))
	require.NoError(t, repo.Create(&entities.TablePosition{ID: "a", Name: "alpha"}))

	positions, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, positions, 2)
	require.Equal(t, "alpha", positions[0].Name)
	require.Equal(t, "beta", positions[1].Name)
}

func TestRepositoryUpdateMissing(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.Update(&entities.TablePosition{ID: "missing", Name: "x"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = repo.Delete("missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
