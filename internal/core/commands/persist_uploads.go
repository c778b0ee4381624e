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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that persists a job's two uploaded parts to their derived
// session paths.
//
// Logic Flow:
//  1. Receive a `model.WatermarkRequest` from the context, carrying the
//     session and the two multipart file headers.
//  2. Stream each upload's bytes to its derived transient path with
//     io.Copy, never buffering the media in memory.
//  3. Sniff the persisted files' media types for the structured logs. The
//     sniff is observability only; logo classification stays derived from
//     the filename extension.
//  4. Track both persisted paths in the context for later cleanup and pass
//     the request to the next command in the chain.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/model"
)

// PersistUploads is a command that writes the uploaded video and logo to
// the session's transient paths.
type PersistUploads struct {
	cor.BaseCommand
}

// NewPersistUploads is the constructor for the PersistUploads command.
func NewPersistUploads(name string) *PersistUploads {
	return &PersistUploads{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable verifies the context carries a watermark request with a
// session before execution.
func (c *PersistUploads) IsExecutable(context cor.Context) bool {
	if !c.BaseCommand.IsExecutable(context) {
		return false
	}
	req, ok := context.Get(c.GetInputParam()).(*model.WatermarkRequest)
	return ok && req.Session != nil
}

// Execute streams both uploads to disk and registers them as transient
// files on the context.
func (c *PersistUploads) Execute(context cor.Context) {
	req := context.Get(c.GetInputParam()).(*model.WatermarkRequest)
	session := req.Session

	videoSize, err := saveUpload(req.Video, session.InputVideoPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist video upload: %w", err))
		return
	}
	context.AddTempFile(session.InputVideoPath)

	logoSize, err := saveUpload(req.Logo, session.InputLogoPath)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to persist logo upload: %w", err))
		return
	}
	context.AddTempFile(session.InputLogoPath)

	slog.InfoContext(context.GetContext(), "persisted uploads",
		"session", session.Id,
		"video_bytes", videoSize,
		"video_mime", sniffMediaType(session.InputVideoPath),
		"logo_bytes", logoSize,
		"logo_mime", sniffMediaType(session.InputLogoPath),
		"logo_kind", req.Kind.String(),
	)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), req)
}

// saveUpload streams one multipart file to the destination path and
// returns the number of bytes written.
func saveUpload(header *multipart.FileHeader, destPath string) (int64, error) {
	src, err := header.Open()
	if err != nil {
		return 0, err
	}
	defer func() { _ = src.Close() }()

	dest, err := os.Create(destPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = dest.Close() }()

	return io.Copy(dest, src)
}

// sniffMediaType reads the persisted file's magic bytes and returns its
// MIME type, or "unknown" when the type cannot be determined. Used only
// to enrich the logs.
func sniffMediaType(path string) string {
	kind, err := filetype.MatchFile(path)
	if err != nil || kind == filetype.Unknown {
		return "unknown"
	}
	return kind.MIME.Value
}
