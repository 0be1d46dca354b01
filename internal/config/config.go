package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ZacxDev/reel-composer/internal/storage"
	"github.com/ZacxDev/reel-composer/internal/timeline"
	"github.com/ZacxDev/reel-composer/pkg/types"
)

// EnvPrefix namespaces environment overrides, e.g. REEL_SERVER_ADDR.
const EnvPrefix = "REEL"

// Config holds the main configuration for the application.
type Config struct {
	Server  Server  `mapstructure:"server"`
	Assets  Assets  `mapstructure:"assets"`
	Output  Output  `mapstructure:"output"`
	Minio   Minio   `mapstructure:"minio"`
	S3      S3      `mapstructure:"s3"`
	Render  Render  `mapstructure:"render"`
	Caption Caption `mapstructure:"caption"`
	Tools   Tools   `mapstructure:"tools"`
	Log     Log     `mapstructure:"log"`
	Upload  Upload  `mapstructure:"upload"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

// Assets are the static files shared by every request.
type Assets struct {
	Watermark string `mapstructure:"watermark"`
	Backdrop  string `mapstructure:"backdrop"`
	Font      string `mapstructure:"font"`
}

type Output struct {
	Dir     string `mapstructure:"dir"`
	Storage string `mapstructure:"storage"` // local, minio, s3 or none
}

type Minio struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type S3 struct {
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

type Render struct {
	Profile string `mapstructure:"profile"`
	Workdir string `mapstructure:"workdir"` // parent of request workspaces, empty for the system temp dir
}

type Caption struct {
	Placement string  `mapstructure:"placement"`
	Mode      string  `mapstructure:"mode"`
	FontSize  float64 `mapstructure:"font_size"`
	Color     string  `mapstructure:"color"`
}

// Tools names the external binaries.
type Tools struct {
	FFmpeg  string `mapstructure:"ffmpeg"`
	FFprobe string `mapstructure:"ffprobe"`
	YtDlp   string `mapstructure:"ytdlp"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type Upload struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// NewViper returns a viper instance with defaults and environment binding
// in place. Callers may bind flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	recipe := timeline.DefaultRecipe()

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("assets.watermark", "./watermark.png")
	v.SetDefault("assets.backdrop", "./backdrop.png")
	v.SetDefault("assets.font", "./font.ttf")
	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.storage", storage.BackendLocal)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("render.profile", string(types.OutputProfileShorts))
	v.SetDefault("render.workdir", "")
	v.SetDefault("caption.placement", string(recipe.CaptionPlacement))
	v.SetDefault("caption.mode", string(types.CaptionModeRaster))
	v.SetDefault("caption.font_size", recipe.CaptionSize)
	v.SetDefault("caption.color", recipe.CaptionColor)
	v.SetDefault("tools.ffmpeg", "ffmpeg")
	v.SetDefault("tools.ffprobe", "ffprobe")
	v.SetDefault("tools.ytdlp", "yt-dlp")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("upload.max_bytes", 32<<20)
}

// Load reads the optional YAML file at path into v and unmarshals the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects enum values no component understands.
func (c *Config) Validate() error {
	switch types.CaptionPlacement(c.Caption.Placement) {
	case types.CaptionPlacementCenterOffset, types.CaptionPlacementFixedY:
	default:
		return fmt.Errorf("invalid caption.placement %q", c.Caption.Placement)
	}
	switch types.CaptionMode(c.Caption.Mode) {
	case types.CaptionModeRaster, types.CaptionModeDrawtext:
	default:
		return fmt.Errorf("invalid caption.mode %q", c.Caption.Mode)
	}
	switch c.Output.Storage {
	case storage.BackendLocal, storage.BackendMinio, storage.BackendS3, storage.BackendNone:
	default:
		return fmt.Errorf("invalid output.storage %q", c.Output.Storage)
	}
	if c.Caption.FontSize <= 0 {
		return fmt.Errorf("caption.font_size must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	return nil
}

// Recipe returns the default reel recipe with the caption settings applied.
func (c *Config) Recipe() timeline.Recipe {
	r := timeline.DefaultRecipe()
	r.CaptionPlacement = types.CaptionPlacement(c.Caption.Placement)
	r.CaptionSize = c.Caption.FontSize
	r.CaptionColor = c.Caption.Color
	return r
}

// StorageConfig returns the sink configuration.
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Backend: c.Output.Storage,
		Dir:     c.Output.Dir,
		Minio: storage.MinioConfig{
			Endpoint:  c.Minio.Endpoint,
			AccessKey: c.Minio.AccessKey,
			SecretKey: c.Minio.SecretKey,
			Bucket:    c.Minio.Bucket,
			UseSSL:    c.Minio.UseSSL,
		},
		S3: storage.S3Config{
			Bucket:       c.S3.Bucket,
			Region:       c.S3.Region,
			Endpoint:     c.S3.Endpoint,
			UsePathStyle: c.S3.UsePathStyle,
		},
	}
}
