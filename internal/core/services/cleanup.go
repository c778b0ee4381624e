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

// Package services provides the application-level services used by the
// HTTP layer and the workflows. This file implements the cleanup
// coordinator, which guarantees that every transient file associated with
// a session is reclaimed on every exit path of a job. Cleanup is
// best-effort reclamation: a failed deletion is degraded service, not job
// failure, so failures are logged and never raised past this boundary.
package services

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaycherian/gcp-go-video-watermark/internal/core/model"
)

// CleanupService removes a session's transient files. All methods
// tolerate already-absent files and are safe to call repeatedly after a
// prior partial cleanup.
type CleanupService struct {
	TempDir string // The transient storage area the service sweeps.
}

// NewCleanupService constructs a cleanup service over the given
// transient directory.
func NewCleanupService(tempDir string) *CleanupService {
	return &CleanupService{TempDir: tempDir}
}

// CleanupInputs removes exactly the session's two input files. Inputs are
// reclaimed as soon as the engine has consumed them, success or failure.
func (s *CleanupService) CleanupInputs(session *model.Session) {
	for _, path := range []string{session.InputVideoPath, session.InputLogoPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove input file", "session", session.Id, "path", path, "error", err)
		}
	}
}

// CleanupAll scans the transient area and removes every entry whose name
// is prefixed by the session id, logging and continuing on individual
// failures. After it returns, no file prefixed by the id remains unless
// its deletion failed and was logged.
func (s *CleanupService) CleanupAll(sessionId string) {
	entries, err := os.ReadDir(s.TempDir)
	if err != nil {
		slog.Warn("failed to scan transient area for cleanup", "session", sessionId, "dir", s.TempDir, "error", err)
		return
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), sessionId) {
			continue
		}
		path := filepath.Join(s.TempDir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove transient file", "session", sessionId, "path", path, "error", err)
		}
	}
}
