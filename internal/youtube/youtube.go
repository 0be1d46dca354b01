// Package youtube extracts the audio track of a YouTube video with yt-dlp.
package youtube

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ZacxDev/reel-composer/internal/failure"
)

// AudioBasename is the file name, without extension, of the extracted track.
const AudioBasename = "youtube_audio"

// Downloader runs yt-dlp.
type Downloader struct {
	binary string
	log    zerolog.Logger
}

func NewDownloader(binary string, log zerolog.Logger) *Downloader {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Downloader{
		binary: binary,
		log:    log.With().Str("component", "youtube").Logger(),
	}
}

// ValidateURL accepts absolute http(s) URLs with a host.
func ValidateURL(link string) error {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return failure.Wrap(err, failure.KindInput, "youtube.ValidateURL", "invalid youtube_link")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return failure.New(failure.KindInput, "youtube.ValidateURL", "youtube_link must be an http(s) URL, got %q", link)
	}
	if u.Host == "" {
		return failure.New(failure.KindInput, "youtube.ValidateURL", "youtube_link has no host")
	}
	return nil
}

// Args returns the yt-dlp arguments that extract the best audio of link as
// a 192K mp3 into dir.
func (d *Downloader) Args(link, dir string) []string {
	return []string{
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--no-playlist",
		"-o", filepath.Join(dir, AudioBasename+".%(ext)s"),
		strings.TrimSpace(link),
	}
}

// Download extracts the audio of link into dir and returns the mp3 path.
func (d *Downloader) Download(ctx context.Context, link, dir string) (string, error) {
	if err := ValidateURL(link); err != nil {
		return "", err
	}

	args := d.Args(link, dir)
	d.log.Info().Str("url", link).Msg("downloading audio")
	d.log.Debug().Strs("args", args).Msg("yt-dlp command")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", failure.Wrap(ctx.Err(), failure.KindDownload, "youtube.Download", "download cancelled")
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "yt-dlp failed"
		}
		return "", failure.Wrap(err, failure.KindDownload, "youtube.Download", msg)
	}

	path := filepath.Join(dir, AudioBasename+".mp3")
	info, err := os.Stat(path)
	if err != nil {
		return "", failure.Wrap(err, failure.KindDownload, "youtube.Download", "yt-dlp produced no mp3")
	}
	if info.Size() == 0 {
		return "", failure.New(failure.KindDownload, "youtube.Download", "yt-dlp produced an empty file")
	}

	d.log.Info().Str("path", path).Int64("bytes", info.Size()).Msg("audio downloaded")
	return path, nil
}
