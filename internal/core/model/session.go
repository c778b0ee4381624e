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

// Package model defines the core data structures for the application.
// This file defines the Session, the unit-of-work identity that binds one
// watermarking job's input and output files together, and the delivery
// mode that determines where the job's output lives.
package model

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DeliveryMode selects how a finished output is returned to the caller.
type DeliveryMode string

const (
	// DeliveryModeURL answers with a JSON body containing a download URL;
	// the output file lives in the durable output area until the retention
	// sweeper reclaims it.
	DeliveryModeURL DeliveryMode = "url"
	// DeliveryModeStream answers with the output streamed as the response
	// body; the output file lives in the transient area and is reclaimed
	// as soon as transmission finishes.
	DeliveryModeStream DeliveryMode = "stream"
)

// Session identifies one watermarking job. Its id is a random 128-bit
// value rendered to text, used as a filename prefix and log correlation
// key, and all of the session's file paths derive solely from it. Two
// concurrent sessions therefore never share a path.
type Session struct {
	Id             string // Opaque unique token generated at job start.
	InputVideoPath string // Transient-area path of the uploaded base video.
	InputLogoPath  string // Transient-area path of the uploaded logo.
	OutputPath     string // Output path; transient or durable depending on delivery mode.
}

// NewSession allocates a session with a fresh collision-resistant id.
// Paths are derived separately once the uploaded filenames are known.
func NewSession() *Session {
	return &Session{Id: uuid.NewString()}
}

// DerivePaths computes the session's three file paths from the uploaded
// filenames and the active delivery mode. It is pure and deterministic:
// repeated calls with the same inputs yield the same paths. Extensions
// are lower-cased; a filename without an extension yields none.
func (s *Session) DerivePaths(tempDir string, outputDir string, videoName string, logoName string, mode DeliveryMode) {
	videoExt := strings.ToLower(filepath.Ext(videoName))
	logoExt := strings.ToLower(filepath.Ext(logoName))

	s.InputVideoPath = filepath.Join(tempDir, s.Id+"_video"+videoExt)
	s.InputLogoPath = filepath.Join(tempDir, s.Id+"_logo"+logoExt)
	if mode == DeliveryModeStream {
		s.OutputPath = filepath.Join(tempDir, s.Id+"_output.mp4")
	} else {
		s.OutputPath = filepath.Join(outputDir, s.Id+"_watermarked.mp4")
	}
}

// OutputName returns the bare filename of the session's output, the name
// under which a URL-mode output is served from /downloads.
func (s *Session) OutputName() string {
	return filepath.Base(s.OutputPath)
}
