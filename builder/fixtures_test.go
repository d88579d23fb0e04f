/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// stageCall records one AssetStager.Stage invocation.
type stageCall struct {
	Source    string
	Key       string
	LocalPath string
}

// fakeStager records staging calls and fabricates remote references.
type fakeStager struct {
	mu    sync.Mutex
	calls []stageCall
	err   error
}

func (f *fakeStager) Stage(_ context.Context, source, key, localPath string) (*StagedAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, stageCall{Source: source, Key: key, LocalPath: localPath})
	uri := "s3://test-staging/" + key
	return &StagedAsset{
		URI:          uri,
		FetchCommand: fmt.Sprintf("aws s3 cp %q %q", uri, localPath),
		LocalPath:    localPath,
	}, nil
}

// fakeRegistry returns a fixed repository.
type fakeRegistry struct {
	repo *Repository
	err  error
}

func (f *fakeRegistry) Repository(context.Context) (*Repository, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.repo != nil {
		return f.repo, nil
	}
	return &Repository{
		Name:          "kiln/test",
		URI:           "registry.example.com/kiln/test",
		LoginCommands: []string{"docker login registry.example.com"},
	}, nil
}

// fakeExecutor implements ExecutorBackend for a Linux-only backend.
type fakeExecutor struct {
	mu         sync.Mutex
	triggered  []*JobDefinition
	triggerErr error
	status     InvocationStatus
}

func (f *fakeExecutor) Capabilities() Capabilities {
	return Capabilities{
		{Platform: PlatformLinux, Arch: ArchX8664},
		{Platform: PlatformLinux, Arch: ArchARM64},
	}
}

func (f *fakeExecutor) Profile(platform Platform, arch Arch) (ComputeProfile, error) {
	if platform != PlatformLinux {
		return ComputeProfile{}, NewConfigError("cannot build %s/%s images", platform, arch)
	}
	return ComputeProfile{
		Type:            "BUILD_GENERAL1_SMALL",
		Image:           "test/build-image:1",
		EnvironmentType: "LINUX_CONTAINER",
		PrivilegedMode:  true,
	}, nil
}

func (f *fakeExecutor) Trigger(_ context.Context, def *JobDefinition) (*Invocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.triggerErr != nil {
		return nil, f.triggerErr
	}
	f.triggered = append(f.triggered, def)
	return &Invocation{
		ID:     fmt.Sprintf("%s:%d", def.Name, len(f.triggered)),
		Status: StatusRunning,
	}, nil
}

func (f *fakeExecutor) Status(context.Context, string) (InvocationStatus, error) {
	if f.status == "" {
		return StatusSucceeded, nil
	}
	return f.status, nil
}

// writeAsset creates an asset file on disk and returns its path.
func writeAsset(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
