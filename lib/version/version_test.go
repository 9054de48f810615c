// Copyright 2026 The Nodeward Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfoEmbedsCommitAndBuildTime(t *testing.T) {
	got := Info()
	if !strings.HasPrefix(got, Version) {
		t.Errorf("Info() = %q, want %q prefix", got, Version)
	}
	if !strings.Contains(got, GitCommit) {
		t.Errorf("Info() = %q, want commit %q embedded", got, GitCommit)
	}
	if !strings.Contains(got, BuildTime) {
		t.Errorf("Info() = %q, want build time %q embedded", got, BuildTime)
	}
}

func TestInfoMarksDirtyBuilds(t *testing.T) {
	defer func(prev string) { GitDirty = prev }(GitDirty)

	GitDirty = "true"
	if got := Info(); !strings.Contains(got, GitCommit+"-dirty") {
		t.Errorf("Info() = %q, want commit marked dirty", got)
	}

	GitDirty = "false"
	if got := Info(); strings.Contains(got, "-dirty") {
		t.Errorf("Info() = %q, clean build marked dirty", got)
	}
}

func TestFullReportsRuntime(t *testing.T) {
	got := Full()
	if !strings.HasPrefix(got, Info()) {
		t.Errorf("Full() = %q, want Info() %q as first line", got, Info())
	}
	if !strings.Contains(got, runtime.Version()) {
		t.Errorf("Full() = %q, want Go version %q", got, runtime.Version())
	}
	if platform := runtime.GOOS + "/" + runtime.GOARCH; !strings.Contains(got, platform) {
		t.Errorf("Full() = %q, want platform %q", got, platform)
	}
}

func TestShortIsBareVersion(t *testing.T) {
	if got := Short(); got != Version {
		t.Errorf("Short() = %q, want %q", got, Version)
	}
}
