package drivers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hephylab/tableService/internal/domain/models"
)

func TestDummyMotionCompletes(t *testing.T) {
	d := NewDummy()
	d.SetVelocity(models.Vector{X: 1000, Y: 1000, Z: 1000})

	require.NoError(t, d.MoveAbsolute(models.Vector{X: 1, Y: 2, Z: 3}))

	deadline := time.Now().Add(2 * time.Second)
	for {
		moving, err := d.IsMoving()
		require.NoError(t, err)
		if !moving {
			break
		}
		require.True(t, time.Now().Before(deadline), "motion did not settle")
		time.Sleep(time.Millisecond)
	}

	pos, err := d.Position()
	require.NoError(t, err)
	require.Equal(t, models.Vector{X: 1, Y: 2, Z: 3}, pos)
}

func TestDummyMotionDoesNotOvershoot(t *testing.T) {
	d := NewDummy()
	d.SetVelocity(models.Vector{X: 0.001, Y: 0.001, Z: 0.001})

	require.NoError(t, d.MoveRelative(models.Vector{X: 10, Y: 0, Z: 0}))
	time.Sleep(10 * time.Millisecond)

	pos, err := d.Position()
	require.NoError(t, err)
	require.Greater(t, pos.X, 0.0)
	require.Less(t, pos.X, 10.0)

	moving, err := d.IsMoving()
	require.NoError(t, err)
	require.True(t, moving)
}

func TestDummyAbortFreezesPosition(t *testing.T) {
	d := NewDummy()
	d.SetVelocity(models.Vector{X: 0.001, Y: 0.001, Z: 0.001})

	require.NoError(t, d.MoveRelative(models.Vector{X: 10, Y: 10, Z: 10}))
	require.NoError(t, d.Abort())

	moving, err := d.IsMoving()
	require.NoError(t, err)
	require.False(t, moving)

	pos1, err := d.Position()
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	pos2, err := d.Position()
	require.NoError(t, err)
	require.Equal(t, pos1, pos2)
}

func TestDummyCalibrationAlwaysReady(t *testing.T) {
	d := NewDummy()
	cal, err := d.CalibrationState()
	require.NoError(t, err)
	want := models.Vector{X: models.CalReady, Y: models.CalReady, Z: models.CalReady}
	require.Equal(t, want, cal)
}

func TestDummyNegativeDirection(t *testing.T) {
	d := NewDummy()
	d.SetVelocity(models.Vector{X: 1000, Y: 1000, Z: 1000})

	require.NoError(t, d.MoveAbsolute(models.Vector{X: -5, Y: 0, Z: 0}))
	time.Sleep(20 * time.Millisecond)

	pos, err := d.Position()
	require.NoError(t, err)
	require.Equal(t, -5.0, pos.X)
}
