// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main contains the HTTP surface of the watermark service.
//
// Routes:
//   - POST /watermark: accepts multipart parts "video" and "logo", runs
//     the watermark pipeline, and delivers the result per the configured
//     delivery mode.
//   - GET /downloads/*: static file server over the durable output area,
//     mounted only in download-URL delivery mode.
//   - GET /health: engine availability via the rate-limited version probe.
//   - GET /: liveness message.
//
// Engine diagnostics (stderr, exit codes) never reach the client; failed
// jobs answer with a stable generic message and the detail goes to the
// server logs.
package main

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-video-watermark/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/model"
)

// NewRouter builds the Gin engine with middleware and all routes
// registered against the current application state.
func NewRouter() *gin.Engine {
	r := gin.Default()

	// Trace incoming requests; spans propagate into the workflow chain.
	r.Use(otelgin.Middleware("watermark-server"))

	// Permissive CORS with Content-Disposition exposed so browsers can
	// read the suggested filename off streamed attachments.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	r.Use(cors.New(corsConfig))

	r.POST("/watermark", CreateWatermark)
	r.GET("/health", HealthCheck)
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Watermark API is running."})
	})

	if state.config.Application.DeliveryMode == model.DeliveryModeURL {
		r.Static("/downloads", state.config.Storage.OutputDir)
	}

	return r
}

// CreateWatermark handles one watermarking job end to end: validate the
// two parts, derive the session paths, run the pipeline, and deliver the
// output. Validation failures answer 400 before any file is written, so
// no session artifacts exist to clean up on that path.
func CreateWatermark(c *gin.Context) {
	video, err := c.FormFile("video")
	if err != nil || video.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Video and logo files are required."})
		return
	}
	logo, err := c.FormFile("logo")
	if err != nil || logo.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Video and logo files are required."})
		return
	}

	config := state.config
	mode := config.Application.DeliveryMode

	session := model.NewSession()
	session.DerivePaths(config.Storage.TempDir, config.Storage.OutputDir, video.Filename, logo.Filename, mode)
	slog.InfoContext(c.Request.Context(), "new watermark request",
		"session", session.Id, "video", video.Filename, "logo", logo.Filename)

	req := &model.WatermarkRequest{
		Session: session,
		Video:   video,
		Logo:    logo,
		Kind:    model.LogoKindForName(logo.Filename),
	}

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(c.Request.Context())
	chainCtx.Add(cor.CtxIn, req)

	state.watermarkWorkflow.Execute(chainCtx)

	if chainCtx.HasErrors() {
		for name, err := range chainCtx.GetErrors() {
			slog.ErrorContext(c.Request.Context(), "watermark pipeline failed",
				"session", session.Id, "command", name, "error", err)
		}
		// Reclaim every remaining artifact carrying this session's prefix.
		state.cleanup.CleanupAll(session.Id)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "FFmpeg processing failed."})
		return
	}

	switch mode {
	case model.DeliveryModeStream:
		// FileAttachment returns once the last byte is written or the
		// client is gone; the deferred sweep therefore runs only after
		// the response stream's lifetime ends, on every exit path.
		defer state.cleanup.CleanupAll(session.Id)
		c.FileAttachment(session.OutputPath, attachmentName(video.Filename))
	default:
		slog.InfoContext(c.Request.Context(), "processing complete",
			"session", session.Id, "download_url", "/downloads/"+session.OutputName())
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"download_url": "/downloads/" + session.OutputName(),
			"filename":     "watermarked_" + video.Filename,
		})
	}
}

// attachmentName derives the suggested filename for a streamed result,
// forcing an .mp4 extension since the output container is always MP4.
func attachmentName(originalName string) string {
	name := "watermarked_" + originalName
	if !strings.HasSuffix(strings.ToLower(name), ".mp4") {
		name += ".mp4"
	}
	return name
}

// HealthCheck reports whether the engine binary is runnable. An engine
// that cannot be probed is degraded service, not a server error.
func HealthCheck(c *gin.Context) {
	available := state.probe.Available(c.Request.Context())
	status := "healthy"
	if !available {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"ffmpeg_available": available,
	})
}
