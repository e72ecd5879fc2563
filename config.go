package compass

import (
	"bytes"
	"fmt"
	"os"

	"github.com/gekko3d/compass/rt/cinematic"
	"github.com/gekko3d/compass/rt/gpu"
	"github.com/gekko3d/compass/rt/interact"
	"github.com/gekko3d/compass/rt/particles"
	"github.com/gekko3d/compass/rt/post"
	"github.com/pelletier/go-toml/v2"
)

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

type CameraConfig struct {
	Fov  float32 `toml:"fov"`
	Near float32 `toml:"near"`
	Far  float32 `toml:"far"`
}

type SceneConfig struct {
	ModelScale     float32    `toml:"model_scale"`
	Exposure       float32    `toml:"exposure"`
	LightColor     uint32     `toml:"light_color"`
	LightIntensity float32    `toml:"light_intensity"`
	LightPosition  [3]float32 `toml:"light_position"`
	Metalness      float32    `toml:"metalness"`
	Roughness      float32    `toml:"roughness"`
	EnvMaxWidth    int        `toml:"env_max_width"`
}

type Config struct {
	AssetRoot       string  `toml:"asset_root"`
	ModelPath       string  `toml:"model_path"`
	EnvironmentPath string  `toml:"environment_path"`
	MaxPixelRatio   float64 `toml:"max_pixel_ratio"`
	Debug           bool    `toml:"debug"`
	WatchAssets     bool    `toml:"watch_assets"`
	// Mobile disables pointer-driven distortion.
	Mobile bool  `toml:"mobile"`
	Seed   int64 `toml:"seed"`

	Window      WindowConfig      `toml:"window"`
	Camera      CameraConfig      `toml:"camera"`
	Scene       SceneConfig       `toml:"scene"`
	Particles   particles.Options `toml:"particles"`
	Cinematic   cinematic.Config  `toml:"cinematic"`
	Interaction interact.Config   `toml:"interaction"`
	Post        post.Options      `toml:"post"`
}

func DefaultConfig() Config {
	return Config{
		AssetRoot:       "assets",
		ModelPath:       "models/compass.glb",
		EnvironmentPath: "textures/environment.hdr",
		MaxPixelRatio:   gpu.DefaultMaxPixelRatio,
		Window: WindowConfig{
			Width:  800,
			Height: 800,
			Title:  "compass",
		},
		Camera: CameraConfig{
			Fov:  45,
			Near: 0.1,
			Far:  100,
		},
		Scene: SceneConfig{
			ModelScale:     0.035,
			Exposure:       0.1,
			LightColor:     0xffaa44,
			LightIntensity: 0.8,
			LightPosition:  [3]float32{3, 1, 5},
			Metalness:      0.9,
			Roughness:      0.1,
			EnvMaxWidth:    1024,
		},
		Particles:   particles.DefaultOptions(),
		Cinematic:   cinematic.DefaultConfig(),
		Interaction: interact.DefaultConfig(),
		Post:        post.DefaultOptions(),
	}
}

// DecodeConfig overlays TOML data on the defaults. Unknown keys are
// rejected so typos don't go unnoticed.
func DecodeConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a TOML config file. Missing keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), err
	}
	return DecodeConfig(data)
}
