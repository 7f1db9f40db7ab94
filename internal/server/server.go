/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes card rendering over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"visitingcard/internal/card"
	"visitingcard/internal/export"
	"visitingcard/internal/filter"
	applog "visitingcard/internal/log"
	"visitingcard/internal/render"
	"visitingcard/internal/storage"
	"visitingcard/internal/textlayout"
	"visitingcard/internal/version"
)

// Options configures a Server. Template and History are optional: without a
// template every request must upload one, without a history nothing is recorded.
type Options struct {
	Renderer  *render.Renderer
	Template  image.Image
	History   *storage.History
	MaxUpload int64 // bytes; 0 means 8 MiB
	Logger    *slog.Logger
}

// Server holds the HTTP handlers. All state is read-only except the history,
// which serializes its own writes.
type Server struct {
	opts   Options
	log    *slog.Logger
	engine *gin.Engine
	seq    atomic.Uint64
}

// New builds the gin engine with recovery, request logging and the API routes.
func New(opts Options) (*Server, error) {
	if opts.Renderer == nil {
		return nil, errors.New("server: renderer is required")
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = 8 << 20
	}
	if opts.Logger == nil {
		opts.Logger = applog.WithComponent("server")
	}
	s := &Server{opts: opts, log: opts.Logger}

	e := gin.New()
	e.Use(gin.Recovery(), s.requestLog())
	api := e.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/cards", s.renderCard)
		api.GET("/qr", s.qr)
		api.GET("/history", s.listHistory)
		api.GET("/history/:id/thumb", s.historyThumb)
	}
	s.engine = e
	return s, nil
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", slog.String("addr", addr))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("stopped")
	return nil
}

// requestLog tags the request context with a job id and logs one line per request.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := fmt.Sprintf("%x-%d", start.Unix(), s.seq.Add(1))
		c.Request = c.Request.WithContext(applog.ContextWithJob(c.Request.Context(), id))
		c.Header("X-Job-ID", id)
		c.Next()
		s.log.InfoContext(c.Request.Context(), "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
}

func fail(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// statusFor maps render errors to HTTP status codes.
func statusFor(err error) int {
	var ioErr *render.IOError
	switch {
	case errors.Is(err, card.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, textlayout.ErrInvalidInput), errors.Is(err, filter.ErrInvalidImage):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ioErr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeUpload(fh *multipart.FileHeader, op string) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, &render.IOError{Op: op, Path: fh.Filename, Err: err}
	}
	defer f.Close()
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &render.IOError{Op: op, Path: fh.Filename, Err: err}
	}
	return img, nil
}

// renderCard accepts multipart form fields "record" (JSON), "photo" (image)
// and optionally "template" (image) and "preset", and answers with the PNG.
func (s *Server) renderCard(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUpload)
	if err := c.Request.ParseMultipartForm(s.opts.MaxUpload); err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("multipart: %w", err))
		return
	}
	rec, err := card.ParseRecordJSON([]byte(c.PostForm("record")))
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	preset, err := export.ParsePreset(c.PostForm("preset"))
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	photoFile, err := c.FormFile("photo")
	if err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("photo: %w", err))
		return
	}
	photo, err := decodeUpload(photoFile, "decode photo")
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	tpl := s.opts.Template
	tplName := "default"
	if fh, err := c.FormFile("template"); err == nil {
		if tpl, err = decodeUpload(fh, "decode template"); err != nil {
			fail(c, statusFor(err), err)
			return
		}
		tplName = fh.Filename
	}
	if tpl == nil {
		fail(c, http.StatusBadRequest, errors.New("template: no default template configured, upload one"))
		return
	}

	img, err := s.opts.Renderer.Render(tpl, photo, rec)
	if err != nil {
		s.log.WarnContext(ctx, "render failed", slog.Any("err", err))
		fail(c, statusFor(err), err)
		return
	}
	out, err := export.Apply(img, preset)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	var buf bytes.Buffer
	if err := export.EncodePNG(&buf, out); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	s.record(ctx, rec, preset, tplName, photoFile.Filename, out)
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// record stores the render in the history. Failures are logged, never returned.
func (s *Server) record(ctx context.Context, rec card.Record, preset export.PresetName, tpl, photo string, img image.Image) {
	if s.opts.History == nil {
		return
	}
	thumb, err := export.ThumbnailPNG(img, 128)
	if err != nil {
		s.log.WarnContext(ctx, "thumbnail failed", slog.Any("err", err))
	}
	b := img.Bounds()
	_, err = s.opts.History.Add(ctx, storage.Entry{
		Name:        rec.Name,
		Designation: rec.Designation,
		Variant:     s.opts.Renderer.Style().Variant(rec.Name).String(),
		Preset:      string(preset),
		Template:    tpl,
		Photo:       photo,
		Output:      "http",
		Width:       b.Dx(),
		Height:      b.Dy(),
		Thumb:       thumb,
	})
	if err != nil {
		s.log.WarnContext(ctx, "history insert failed", slog.Any("err", err))
	}
}

func (s *Server) qr(c *gin.Context) {
	size := 256
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 21 || n > 2048 {
			fail(c, http.StatusBadRequest, fmt.Errorf("size must be between 21 and 2048"))
			return
		}
		size = n
	}
	data, err := render.QRPNG(c.Query("text"), size)
	if err != nil {
		if errors.Is(err, textlayout.ErrInvalidInput) {
			fail(c, http.StatusBadRequest, errors.New("text is required"))
			return
		}
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

type historyItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Designation string    `json:"designation,omitempty"`
	Variant     string    `json:"variant"`
	Preset      string    `json:"preset"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) listHistory(c *gin.Context) {
	if s.opts.History == nil {
		fail(c, http.StatusNotFound, errors.New("history is disabled"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	var (
		entries []storage.Entry
		err     error
	)
	if q := c.Query("q"); q != "" {
		entries, err = s.opts.History.Search(c.Request.Context(), q, limit)
	} else {
		entries, err = s.opts.History.List(c.Request.Context(), limit)
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, historyItem{
			ID: e.ID, Name: e.Name, Designation: e.Designation, Variant: e.Variant,
			Preset: e.Preset, Width: e.Width, Height: e.Height, CreatedAt: e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "renders": items})
}

func (s *Server) historyThumb(c *gin.Context) {
	if s.opts.History == nil {
		fail(c, http.StatusNotFound, errors.New("history is disabled"))
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	e, err := s.opts.History.Get(c.Request.Context(), id)
	if err != nil || len(e.Thumb) == 0 {
		fail(c, http.StatusNotFound, fmt.Errorf("no thumbnail for %d", id))
		return
	}
	c.DataFromReader(http.StatusOK, int64(len(e.Thumb)), "image/png", bytes.NewReader(e.Thumb), nil)
}
