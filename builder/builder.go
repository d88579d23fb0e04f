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

// Package builder implements the synthesis-time planner at the heart of
// kiln: it turns an ordered list of pluggable image components into a
// deterministic build job definition for an external executor backend.
//
// # Architecture
//
// The package is organized into several layers:
//
//   - Interfaces (builder.go): Component, AssetStager, ArtifactRegistry,
//     and ExecutorBackend abstractions
//   - Recipe (recipe.go): the versioned platform + components + template tuple
//   - Assembler (assembler.go): Dockerfile and build script synthesis
//   - Service Layer (service.go): job definition synthesis and triggering
//   - Orchestrator (orchestrator.go): parallel multi-variant triggers
//
// # Key Concepts
//
// BuildService is the main entry point. It composes a Recipe, an
// AssetStager, an ArtifactRegistry, and an ExecutorBackend into a
// three-phase build job and triggers it:
//
//	service := builder.NewBuildService("app", recipe, opts, stager, registry, executor)
//	inv, err := service.Trigger(ctx)
//
// Synthesis is pure and deterministic: regenerating a job definition from
// identical inputs yields an identical definition. All remote effects
// (asset staging, project creation, build starts) happen through the
// explicit collaborator interfaces, never inside components.
package builder

import (
	"context"
	"time"
)

// Component is the contract every pluggable image component satisfies.
// Implementations must be side-effect free: the query methods only report
// what the component contributes for a given platform and architecture.
// Effects such as asset staging happen through the AssetStager collaborator.
type Component interface {
	// Name identifies the component. It appears in generated file names and
	// must be stable across synthesis passes.
	Name() string

	// Assets returns the files and directories the component contributes.
	Assets(platform Platform, arch Arch) []Asset

	// Commands returns the ordered shell install commands the component
	// contributes.
	Commands(platform Platform, arch Arch) []string

	// ImageDirectives returns raw image-definition lines (Dockerfile
	// directives) appended verbatim after the component's generated lines.
	ImageDirectives(platform Platform, arch Arch) []string
}

// Asset describes a local file or directory a component contributes,
// together with the path it must occupy inside the image.
type Asset struct {
	// Source is a local path to a regular file or a directory.
	Source string

	// Target is the absolute path inside the image.
	Target string
}

// StagedAsset is the remote reference an AssetStager returns for an asset.
type StagedAsset struct {
	// URI is the fetchable remote reference, e.g. s3://bucket/key.
	URI string

	// FetchCommand is a shell command that downloads the asset to LocalPath
	// inside the build workspace.
	FetchCommand string

	// LocalPath is the workspace-relative path the fetch command writes.
	LocalPath string
}

// AssetStager stages a local asset so the build executor can fetch it.
// Implementations guarantee the staged object is readable by the
// executor's principal.
type AssetStager interface {
	Stage(ctx context.Context, source, key, localPath string) (*StagedAsset, error)
}

// Repository identifies the target image repository and how the executor
// authenticates to it.
type Repository struct {
	Name string
	URI  string

	// LoginCommands are the shell commands the pre-build phase runs to
	// authenticate the executor to the repository.
	LoginCommands []string
}

// ArtifactRegistry resolves the image repository a build pushes to.
type ArtifactRegistry interface {
	Repository(ctx context.Context) (*Repository, error)
}

// Phases holds the ordered shell commands for each phase of a build job.
type Phases struct {
	PreBuild  []string
	Build     []string
	PostBuild []string
}

// ComputeProfile describes the execution environment a build runs in.
type ComputeProfile struct {
	// Type is the executor's compute class, e.g. BUILD_GENERAL1_SMALL.
	Type string

	// Image is the build container image.
	Image string

	// EnvironmentType selects the container environment flavor.
	EnvironmentType string

	// PrivilegedMode is required for docker-in-docker builds.
	PrivilegedMode bool
}

// NetworkPlacement pins a build job inside a VPC. The zero value means the
// executor's default placement.
type NetworkPlacement struct {
	VpcID          string
	Subnets        []string
	SecurityGroups []string
}

// IsZero reports whether no placement was requested.
func (n NetworkPlacement) IsZero() bool {
	return n.VpcID == "" && len(n.Subnets) == 0 && len(n.SecurityGroups) == 0
}

// JobDefinition is the stateless artifact handed to an executor backend.
// It is rebuilt on every synthesis pass; identical inputs yield an
// identical definition.
type JobDefinition struct {
	Name    string
	Phases  Phases
	Env     map[string]string
	Compute ComputeProfile
	Network NetworkPlacement
	Timeout time.Duration
}

// InvocationStatus is the lifecycle state of one build invocation.
type InvocationStatus string

// Build invocation states.
const (
	StatusPending   InvocationStatus = "PENDING"
	StatusRunning   InvocationStatus = "RUNNING"
	StatusSucceeded InvocationStatus = "SUCCEEDED"
	StatusFailed    InvocationStatus = "FAILED"
)

// Terminal reports whether the status is a final one.
func (s InvocationStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Invocation is one externally-triggered run of a job definition.
type Invocation struct {
	ID     string
	Status InvocationStatus
}

// PlatformArch is a platform/architecture pair.
type PlatformArch struct {
	Platform Platform
	Arch     Arch
}

// Capabilities enumerates the platform/architecture pairs an executor
// backend can build.
type Capabilities []PlatformArch

// Supports reports whether the pair is buildable.
func (c Capabilities) Supports(platform Platform, arch Arch) bool {
	for _, pa := range c {
		if pa.Platform == platform && pa.Arch == arch {
			return true
		}
	}
	return false
}

// ExecutorBackend runs synthesized job definitions. Implementations own
// the compute profile fallback table and the build timeout enforcement.
type ExecutorBackend interface {
	// Capabilities enumerates the buildable platform/architecture pairs.
	Capabilities() Capabilities

	// Profile returns the compute profile for the pair, or a ConfigError
	// when the pair is unsupported.
	Profile(platform Platform, arch Arch) (ComputeProfile, error)

	// Trigger starts one build invocation of the definition. Safe to call
	// on every synthesis pass; the provisioning layer deduplicates by
	// correlation id.
	Trigger(ctx context.Context, def *JobDefinition) (*Invocation, error)

	// Status queries the state of a previously triggered invocation.
	Status(ctx context.Context, invocationID string) (InvocationStatus, error)
}
