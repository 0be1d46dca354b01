package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ZacxDev/reel-composer/internal/api"
	"github.com/ZacxDev/reel-composer/internal/config"
	"github.com/ZacxDev/reel-composer/internal/logging"
	"github.com/ZacxDev/reel-composer/pkg/videoprocessor"
)

var (
	v = config.NewViper()

	rootCmd = &cobra.Command{
		Use:   "reel-composer",
		Short: "Turn an image, a caption and a YouTube clip into a vertical reel",
		Long: `reel-composer builds a 14 second 1080x1920 video: the uploaded image with a
watermark, a crossfade into the caption over a backdrop, and a 14 second
window of audio taken from a YouTube video.

Examples:
  # Serve the HTTP API
  reel-composer serve --addr :8000

  # Render a single reel to a file
  reel-composer render -i photo.jpg -t "Hello" -l https://youtu.be/dQw4w9WgXcQ --mm 1 --ss 5 -o hello.mp4`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /generate-video/",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := videoprocessor.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			return api.Run(ctx, api.NewServer(cfg.Server.Addr, svc.Handler()), log)
		},
	}

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Render one reel to a local file",
		Long: fmt.Sprintf(`Render one reel without starting the server.

Supported profiles:
%s
Example:
  reel-composer render -i photo.jpg -t "Hello" -l https://youtu.be/dQw4w9WgXcQ --mm 0 --ss 30`,
			formatSupportedProfiles()),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}

			opts := videoprocessor.RenderOptions{}
			opts.ImagePath, _ = cmd.Flags().GetString("image")
			opts.Caption, _ = cmd.Flags().GetString("text")
			opts.YouTubeURL, _ = cmd.Flags().GetString("link")
			opts.OffsetMM, _ = cmd.Flags().GetInt("mm")
			opts.OffsetSS, _ = cmd.Flags().GetInt("ss")
			opts.OutputPath, _ = cmd.Flags().GetString("output")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := videoprocessor.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			out, err := svc.Render(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	profilesCmd = &cobra.Command{
		Use:   "profiles",
		Short: "List output profiles",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(formatSupportedProfiles())
		},
	}
)

func formatSupportedProfiles() string {
	var sb strings.Builder
	for _, p := range videoprocessor.GetSupportedProfiles() {
		sb.WriteString(fmt.Sprintf("- %s\n", p))
	}
	return sb.String()
}

// setup loads .env, the config file and flag overrides, then builds the logger.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load .env: %w", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		v.Set("log.level", "debug")
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr), nil
}

func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json or console)")
	rootCmd.PersistentFlags().String("profile", "shorts",
		fmt.Sprintf("Output profile (%s)", strings.Join(videoprocessor.GetSupportedProfiles(), ", ")))
	rootCmd.PersistentFlags().String("storage", "local", "Where finished videos are kept (local, minio, s3, none)")
	rootCmd.PersistentFlags().String("caption-mode", "raster", "Caption renderer (raster or drawtext)")
	rootCmd.PersistentFlags().String("caption-placement", "center-offset", "Caption placement (center-offset or fixed-y)")
	persistent := map[string]string{
		"log-format":        "log.format",
		"profile":           "render.profile",
		"storage":           "output.storage",
		"caption-mode":      "caption.mode",
		"caption-placement": "caption.placement",
	}
	for flag, key := range persistent {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	// Serve command flags
	serveCmd.Flags().String("addr", ":8000", "Listen address")
	bindFlags(serveCmd, map[string]string{"addr": "server.addr"})

	// Render command flags
	renderCmd.Flags().StringP("image", "i", "", "Input image")
	renderCmd.Flags().StringP("text", "t", "", "Caption text")
	renderCmd.Flags().StringP("link", "l", "", "YouTube link")
	renderCmd.Flags().Int("mm", 0, "Audio offset minutes")
	renderCmd.Flags().Int("ss", 0, "Audio offset seconds")
	renderCmd.Flags().StringP("output", "o", "", "Output video path")

	renderCmd.MarkFlagRequired("image")
	renderCmd.MarkFlagRequired("text")
	renderCmd.MarkFlagRequired("link")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(profilesCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
