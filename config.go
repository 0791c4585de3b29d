package octree

import (
	"os"
	"path/filepath"
	"strings"

	"cogentcore.org/core/math32"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"
)

// Config is the persisted part of an Octree: its root bounds and level count.
// Node placement is never persisted.
type Config struct {
	Bounds    Bounds `toml:"bounds" json:"bounds" yaml:"bounds"`
	NumLevels int    `toml:"num_levels" json:"num_levels" yaml:"num_levels"`
}

// Bounds is a serializable axis-aligned box.
type Bounds struct {
	Min [3]float32 `toml:"min" json:"min" yaml:"min"`
	Max [3]float32 `toml:"max" json:"max" yaml:"max"`
}

// BoundsFromBox converts a box to Bounds.
func BoundsFromBox(b math32.Box3) Bounds {
	return Bounds{
		Min: [3]float32{b.Min.X, b.Min.Y, b.Min.Z},
		Max: [3]float32{b.Max.X, b.Max.Y, b.Max.Z},
	}
}

// Box converts the bounds to a box.
func (b Bounds) Box() math32.Box3 {
	return math32.B3(b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}

// DefaultConfig returns the configuration of an Octree created by New without options.
func DefaultConfig() Config {
	return Config{
		Bounds:    BoundsFromBox(DefaultBoundingBox()),
		NumLevels: DefaultLevels,
	}
}

// Validate reports bounds that cannot hold an octree.
func (c Config) Validate() error {
	for i := range 3 {
		if !(c.Bounds.Min[i] < c.Bounds.Max[i]) {
			return errors.New("invalid octree bounds").
				WithTag("min", c.Bounds.Min).
				WithTag("max", c.Bounds.Max)
		}
	}
	return nil
}

type codec struct {
	marshal   func(v any) ([]byte, error)
	unmarshal func(data []byte, v any) error
}

func codecFor(path string) (codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return codec{toml.Marshal, toml.Unmarshal}, nil
	case ".json":
		return codec{
			func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") },
			json.Unmarshal,
		}, nil
	case ".yaml", ".yml":
		return codec{yaml.Marshal, yaml.Unmarshal}, nil
	}
	return codec{}, errors.New("unsupported config format").WithTag("path", path)
}

// LoadConfig reads a TOML, JSON or YAML config, chosen by file extension.
// Fields missing from the file keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	c, err := codecFor(path)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.New("reading octree config failed").
			WithTag("path", path).
			Wrap(err)
	}

	conf := DefaultConfig()
	if err := c.unmarshal(data, &conf); err != nil {
		return Config{}, errors.New("decoding octree config failed").
			WithTag("path", path).
			Wrap(err)
	}
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Save writes the config to path in the format given by its extension.
func (c Config) Save(path string) error {
	cd, err := codecFor(path)
	if err != nil {
		return err
	}

	data, err := cd.marshal(c)
	if err != nil {
		return errors.New("encoding octree config failed").
			WithTag("path", path).
			Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("writing octree config failed").
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}

// Config returns the persisted settings of the octree.
func (o *Octree) Config() Config {
	return Config{
		Bounds:    BoundsFromBox(o.BoundingBox()),
		NumLevels: o.numLevels,
	}
}

// ApplyConfig resizes the octree to the configured bounds and levels.
func (o *Octree) ApplyConfig(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	o.Resize(c.Bounds.Box(), c.NumLevels)
	return nil
}

// BoundingBox returns the root bounds.
func (o *Octree) BoundingBox() math32.Box3 {
	return o.rootOctant().boundingBox
}

// SetBoundingBox resizes the octree to new root bounds, keeping the level count.
func (o *Octree) SetBoundingBox(box math32.Box3) {
	o.Resize(box, o.numLevels)
}

// NumLevels returns the number of subdivision levels, root included.
func (o *Octree) NumLevels() int {
	return o.numLevels
}

// SetNumLevels resizes the octree to a new level count, keeping the bounds.
func (o *Octree) SetNumLevels(numLevels int) {
	o.Resize(o.BoundingBox(), numLevels)
}
