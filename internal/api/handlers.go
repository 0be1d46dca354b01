package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ZacxDev/reel-composer/internal/failure"
	"github.com/ZacxDev/reel-composer/internal/processor"
)

const defaultMaxUpload = 32 << 20

type Handler struct {
	gen       Generator
	log       zerolog.Logger
	maxUpload int64
}

func NewHandler(d Deps) *Handler {
	limit := d.MaxUpload
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	return &Handler{
		gen:       d.Generator,
		log:       d.Log.With().Str("component", "api").Logger(),
		maxUpload: limit,
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GenerateVideo accepts the multipart form (image, text, youtube_link,
// audio_offset_mm, audio_offset_ss) and answers with the rendered mp4.
func (h *Handler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.With().Str("request_id", middleware.GetReqID(ctx)).Logger()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, failure.Wrap(err, failure.KindInput, "api.GenerateVideo", "invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, closeImage, err := parseRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer closeImage()

	res, err := h.gen.Generate(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("kind", string(failure.KindOf(err))).Msg("video generation failed")
		writeError(w, err)
		return
	}
	defer func() {
		if err := res.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to release result")
		}
	}()

	f, err := res.Open()
	if err != nil {
		writeError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", res.Filename))
	if res.Location != "" {
		w.Header().Set("X-Output-Location", res.Location)
	}
	http.ServeContent(w, r, res.Filename, time.Now(), f)
}

func parseRequest(r *http.Request) (processor.Request, func(), error) {
	var req processor.Request
	noop := func() {}

	file, _, err := r.FormFile("image")
	if err != nil {
		return req, noop, failure.New(failure.KindInput, "api.parseRequest", "image is required")
	}

	text, ok := formValue(r, "text")
	if !ok {
		file.Close()
		return req, noop, failure.New(failure.KindInput, "api.parseRequest", "text is required")
	}
	link, ok := formValue(r, "youtube_link")
	if !ok || strings.TrimSpace(link) == "" {
		file.Close()
		return req, noop, failure.New(failure.KindInput, "api.parseRequest", "youtube_link is required")
	}
	mm, err := formInt(r, "audio_offset_mm")
	if err != nil {
		file.Close()
		return req, noop, err
	}
	ss, err := formInt(r, "audio_offset_ss")
	if err != nil {
		file.Close()
		return req, noop, err
	}

	req = processor.Request{
		Image:      file,
		Caption:    text,
		YouTubeURL: link,
		OffsetMM:   mm,
		OffsetSS:   ss,
	}
	return req, func() { file.Close() }, nil
}

func formValue(r *http.Request, name string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vs, ok := r.MultipartForm.Value[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func formInt(r *http.Request, name string) (int, error) {
	v, ok := formValue(r, name)
	if !ok {
		return 0, failure.New(failure.KindInput, "api.parseRequest", "%s is required", name)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, failure.New(failure.KindInput, "api.parseRequest", "%s must be an integer, got %q", name, v)
	}
	return n, nil
}
