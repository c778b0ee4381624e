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
// This file contains transient structs that exist only in memory while a
// workflow executes; they are never persisted and serve as containers for
// data passed between commands in a chain of responsibility.
package model

import (
	"mime/multipart"
	"path/filepath"
	"strings"
)

// LogoKind classifies the uploaded logo, derived solely from its file
// extension. The classification selects the overlay filter graph; no
// pixel or codec introspection occurs.
type LogoKind int

const (
	// LogoStatic treats the logo as a single RGBA-capable image.
	LogoStatic LogoKind = iota
	// LogoLooping treats the logo as a short animation tiled across the
	// full duration of the base video.
	LogoLooping
)

// String returns a short name for the kind, used in logs.
func (k LogoKind) String() string {
	if k == LogoLooping {
		return "looping"
	}
	return "static"
}

// LogoKindForName classifies a logo by the extension of its uploaded
// filename. The extensions .mov and .webm, in any case, classify as
// looping; every other extension, including none, classifies as static.
func LogoKindForName(filename string) LogoKind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mov", ".webm":
		return LogoLooping
	}
	return LogoStatic
}

// WatermarkRequest is the initial input to the watermark workflow chain.
// It binds an accepted job's session to the two uploaded parts before any
// file has been written.
type WatermarkRequest struct {
	Session *Session              // The job's identity and derived file paths.
	Video   *multipart.FileHeader // The uploaded base video part.
	Logo    *multipart.FileHeader // The uploaded logo part.
	Kind    LogoKind              // Classification of the logo part.
}
