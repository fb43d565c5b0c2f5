package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/mathgl/mgl64"

	"tilegen/internal/meshing"
	"tilegen/internal/noise"
	"tilegen/internal/region"
	"tilegen/internal/tile"
)

// Bounds applied by Clamp.
const (
	MinChunkSize = 2
	MaxChunkSize = 1025
	MaxOctaves   = 16
	MaxWorkers   = 256
)

// Region is one entry of the colour table.
type Region struct {
	Name   string  `json:"name"`
	Height float64 `json:"height"`
	Color  string  `json:"color"` // "#rrggbb" or an SVG colour name
}

// Terrain holds every tunable of tile generation.
type Terrain struct {
	ChunkSize        int                `json:"chunk_size"`
	Seed             int64              `json:"seed"`
	NoiseScale       float64            `json:"noise_scale"`
	Octaves          int                `json:"octaves"`
	Persistence      float64            `json:"persistence"`
	Lacunarity       float64            `json:"lacunarity"`
	Offset           [2]float64         `json:"offset"`
	Normalize        string             `json:"normalize"`    // "local" or "global"
	NoiseSource      string             `json:"noise_source"` // "simplex" or "perlin"
	UseFalloff       bool               `json:"use_falloff"`
	HeightMultiplier float64            `json:"height_multiplier"`
	HeightCurve      []meshing.Keyframe `json:"height_curve"`
	LevelOfDetail    int                `json:"level_of_detail"`
	Regions          []Region           `json:"regions"`
	ClassifyPolicy   string             `json:"classify_policy"` // "last-match" or "first-match"
	Workers          int                `json:"workers"`         // 0 = one per CPU
}

// Default returns the stock island terrain.
func Default() Terrain {
	return Terrain{
		ChunkSize:        tile.DefaultSize,
		Seed:             0,
		NoiseScale:       50,
		Octaves:          4,
		Persistence:      0.5,
		Lacunarity:       2,
		Normalize:        "local",
		NoiseSource:      "simplex",
		HeightMultiplier: 30,
		HeightCurve: []meshing.Keyframe{
			{Time: 0, Value: 0},
			{Time: 0.4, Value: 0},
			{Time: 1, Value: 1},
		},
		Regions: []Region{
			{Name: "water deep", Height: 0, Color: "#1f4fa0"},
			{Name: "water shallow", Height: 0.3, Color: "#3666c6"},
			{Name: "sand", Height: 0.4, Color: "#d2d07d"},
			{Name: "grass", Height: 0.45, Color: "#569918"},
			{Name: "grass dark", Height: 0.55, Color: "#3e6b13"},
			{Name: "rock", Height: 0.6, Color: "#5a453c"},
			{Name: "rock dark", Height: 0.7, Color: "#4b3c35"},
			{Name: "snow", Height: 0.9, Color: "white"},
		},
		ClassifyPolicy: "last-match",
	}
}

// Clamp corrects out-of-range values in place instead of rejecting them.
func (t *Terrain) Clamp() {
	t.ChunkSize = min(max(t.ChunkSize, MinChunkSize), MaxChunkSize)
	if !(t.NoiseScale > noise.MinScale) {
		t.NoiseScale = noise.MinScale
	}
	t.Octaves = min(max(t.Octaves, 0), MaxOctaves)
	if !(t.Lacunarity >= 1) {
		t.Lacunarity = 1
	}
	if !(t.Persistence >= 0) {
		t.Persistence = 0
	}
	t.Persistence = min(t.Persistence, 1)
	t.LevelOfDetail = meshing.ClampLevelOfDetail(t.LevelOfDetail)
	t.Workers = min(max(t.Workers, 0), MaxWorkers)
}

// EffectiveWorkers resolves Workers = 0 to the CPU count.
func (t Terrain) EffectiveWorkers() int {
	if t.Workers > 0 {
		return t.Workers
	}
	return max(runtime.NumCPU(), 1)
}

// TileSettings converts the configuration into generator settings.
func (t Terrain) TileSettings() (tile.Settings, error) {
	t.Clamp()

	mode, err := noise.ParseNormalizeMode(t.Normalize)
	if err != nil {
		return tile.Settings{}, err
	}
	src, err := noise.ParseSourceKind(t.NoiseSource)
	if err != nil {
		return tile.Settings{}, err
	}
	policy, err := region.ParsePolicy(t.ClassifyPolicy)
	if err != nil {
		return tile.Settings{}, err
	}

	regions := make([]region.Region, 0, len(t.Regions))
	for _, r := range t.Regions {
		c, err := region.ParseColor(r.Color)
		if err != nil {
			return tile.Settings{}, fmt.Errorf("region %q: %w", r.Name, err)
		}
		regions = append(regions, region.Region{Label: r.Name, Threshold: r.Height, Color: c})
	}

	var curve meshing.HeightCurve = meshing.LinearCurve{}
	if len(t.HeightCurve) > 0 {
		curve = meshing.NewKeyframes(t.HeightCurve...)
	}

	return tile.Settings{
		Size: t.ChunkSize,
		Noise: noise.Params{
			Seed:        t.Seed,
			Scale:       t.NoiseScale,
			Octaves:     t.Octaves,
			Persistence: t.Persistence,
			Lacunarity:  t.Lacunarity,
			Offset:      mgl64.Vec2(t.Offset),
			Normalize:   mode,
			Source:      src,
		},
		Regions:          region.NewTable(regions...),
		Policy:           policy,
		UseFalloff:       t.UseFalloff,
		HeightMultiplier: t.HeightMultiplier,
		HeightCurve:      curve,
	}, nil
}

// Load reads a JSON file on top of Default, so omitted fields keep their
// defaults. The result is clamped.
func Load(path string) (Terrain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Terrain{}, fmt.Errorf("read config: %w", err)
	}
	t := Default()
	if err := json.Unmarshal(data, &t); err != nil {
		return Terrain{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	t.Clamp()
	return t, nil
}

// Merge applies file-loaded values into cfg, but only for fields that were
// NOT explicitly set via CLI flags. explicitFlags contains the flag names
// that were explicitly provided on the command line.
func Merge(cfg *Terrain, fromFile Terrain, explicitFlags map[string]bool) {
	keep := *cfg
	*cfg = fromFile
	if explicitFlags["size"] {
		cfg.ChunkSize = keep.ChunkSize
	}
	if explicitFlags["seed"] {
		cfg.Seed = keep.Seed
	}
	if explicitFlags["scale"] {
		cfg.NoiseScale = keep.NoiseScale
	}
	if explicitFlags["octaves"] {
		cfg.Octaves = keep.Octaves
	}
	if explicitFlags["persistence"] {
		cfg.Persistence = keep.Persistence
	}
	if explicitFlags["lacunarity"] {
		cfg.Lacunarity = keep.Lacunarity
	}
	if explicitFlags["normalize"] {
		cfg.Normalize = keep.Normalize
	}
	if explicitFlags["noise"] {
		cfg.NoiseSource = keep.NoiseSource
	}
	if explicitFlags["falloff"] {
		cfg.UseFalloff = keep.UseFalloff
	}
	if explicitFlags["height"] {
		cfg.HeightMultiplier = keep.HeightMultiplier
	}
	if explicitFlags["lod"] {
		cfg.LevelOfDetail = keep.LevelOfDetail
	}
	if explicitFlags["policy"] {
		cfg.ClassifyPolicy = keep.ClassifyPolicy
	}
	if explicitFlags["workers"] {
		cfg.Workers = keep.Workers
	}
}

// clone deep-copies the slice fields.
func (t Terrain) clone() Terrain {
	t.HeightCurve = append([]meshing.Keyframe(nil), t.HeightCurve...)
	t.Regions = append([]Region(nil), t.Regions...)
	return t
}
