package octree_test

import (
	"os"
	"path/filepath"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/setanarut/octree"
	"github.com/stretchr/testify/require"
)

func TestConfigSaveLoad(t *testing.T) {
	conf := octree.Config{
		Bounds:    octree.BoundsFromBox(math32.B3(-10, -20, -30, 10, 20, 30.5)),
		NumLevels: 5,
	}

	for _, ext := range []string{".toml", ".json", ".yaml", ".yml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "octree"+ext)
			require.NoError(t, conf.Save(path))

			loaded, err := octree.LoadConfig(path)
			require.NoError(t, err)
			require.Equal(t, conf, loaded)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing fields keep their defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "octree.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"num_levels": 3}`), 0o644))

		conf, err := octree.LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, 3, conf.NumLevels)
		require.Equal(t, octree.DefaultConfig().Bounds, conf.Bounds)
	})

	t.Run("invalid bounds", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "octree.toml")
		data := "num_levels = 4\n\n[bounds]\nmin = [1.0, 1.0, 1.0]\nmax = [1.0, 2.0, 2.0]\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		_, err := octree.LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "octree.yaml")
		require.NoError(t, os.WriteFile(path, []byte("bounds: [not, a, map"), 0o644))

		_, err := octree.LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := octree.LoadConfig(filepath.Join(t.TempDir(), "octree.ini"))
		require.Error(t, err)
		require.Error(t, octree.DefaultConfig().Save(filepath.Join(t.TempDir(), "octree.ini")))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := octree.LoadConfig(filepath.Join(t.TempDir(), "octree.toml"))
		require.Error(t, err)
	})
}

func TestOctreeApplyConfig(t *testing.T) {
	o := octree.New()
	require.Equal(t, octree.DefaultConfig(), o.Config())

	node := octree.NewBoxNode(math32.B3(1, 1, 1, 2, 2, 2), octree.FlagGeometry)
	o.QueueUpdate(node)
	o.Update()

	conf := octree.Config{
		Bounds:    octree.BoundsFromBox(math32.B3(-4, -4, -4, 4, 4, 4)),
		NumLevels: 2,
	}
	require.NoError(t, o.ApplyConfig(conf))
	require.Equal(t, conf, o.Config())
	require.True(t, o.Contains(node))
	require.NoError(t, o.CheckInvariants())

	require.Error(t, o.ApplyConfig(octree.Config{NumLevels: 4}))
	require.Equal(t, conf, o.Config())
}
