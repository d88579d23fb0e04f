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

	"github.com/kilnworks/kiln/logging"
	"github.com/kilnworks/kiln/pkg/errors"
	"github.com/kilnworks/kiln/signal"
)

// Environment variable names injected into build jobs, in addition to the
// signal package's callback variables.
const (
	// EnvImageURI is the fully qualified, version-tagged image reference
	// the build produces.
	EnvImageURI = "KILN_IMAGE_URI"

	// EnvLatestURI is the floating secondary tag refreshed best-effort
	// after signaling.
	EnvLatestURI = "KILN_LATEST_URI"
)

// CallbackBinding ties a build to the provisioning transaction waiting on
// its completion signal. The zero value means no transaction: correlation
// identifiers and endpoint fall back to the literal placeholder and
// delivery is skipped, which is how scheduled rebuilds run.
type CallbackBinding struct {
	Endpoint          string
	StackID           string
	RequestID         string
	LogicalResourceID string
}

// BuildService composes a recipe with the staging, registry, and executor
// collaborators and owns the build lifecycle: synthesize a job definition,
// trigger it, and let the job signal its completion.
type BuildService struct {
	name      string
	recipe    *Recipe
	opts      BuildOptions
	assembler *Assembler
	registry  ArtifactRegistry
	executor  ExecutorBackend
	callback  CallbackBinding
}

// NewBuildService creates a BuildService for one logical image. name
// identifies the logical resource; it stays stable across rebuilds and
// anchors the physical resource id reported in completion signals.
func NewBuildService(name string, recipe *Recipe, opts BuildOptions, stager AssetStager, registry ArtifactRegistry, executor ExecutorBackend) *BuildService {
	return &BuildService{
		name:      sanitizeComponentName(name),
		recipe:    recipe,
		opts:      opts.WithDefaults(),
		assembler: NewAssembler(stager, executor.Capabilities()),
		registry:  registry,
		executor:  executor,
	}
}

// BindCallback attaches the provisioning transaction this build reports to.
// Builds triggered without a binding (scheduled rebuilds) produce a signal
// with placeholder identifiers and skip delivery.
func (s *BuildService) BindCallback(cb CallbackBinding) {
	s.callback = cb
}

// Name returns the logical image name.
func (s *BuildService) Name() string { return s.name }

// JobName returns the executor-side name of the build job.
func (s *BuildService) JobName() string { return "kiln-build-" + s.name }

// PhysicalResourceID returns the identifier reported in completion
// signals. It is stable across rebuilds of the same logical image.
func (s *BuildService) PhysicalResourceID() string { return "kiln-image-" + s.name }

// Recipe returns the service's recipe.
func (s *BuildService) Recipe() *Recipe { return s.recipe }

// Executor returns the service's executor backend.
func (s *BuildService) Executor() ExecutorBackend { return s.executor }

// Synthesize produces the build job definition for the current recipe and
// options. Synthesis is deterministic: identical inputs yield an identical
// definition. Configuration problems surface here, before any build is
// triggered.
func (s *BuildService) Synthesize(ctx context.Context) (*JobDefinition, error) {
	profile, err := s.executor.Profile(s.recipe.Platform, s.recipe.Arch)
	if err != nil {
		return nil, err
	}
	if s.opts.ComputeType != "" {
		profile.Type = s.opts.ComputeType
	}
	if s.opts.BuildImage != "" {
		profile.Image = s.opts.BuildImage
	}

	assembly, err := s.assembler.Assemble(ctx, s.recipe, s.opts.BaseImage)
	if err != nil {
		return nil, err
	}

	repo, err := s.registry.Repository(ctx)
	if err != nil {
		return nil, errors.Wrap("resolve artifact repository", "", err)
	}

	version := s.recipe.Version()
	logging.DebugContext(ctx, "Synthesized build job for %s at version %s", s.name, version)

	def := &JobDefinition{
		Name:    s.JobName(),
		Env:     s.buildEnv(repo, version),
		Compute: profile,
		Network: s.opts.Network,
		Timeout: s.opts.Timeout,
		Phases: Phases{
			PreBuild:  repo.LoginCommands,
			Build:     buildPhaseCommands(assembly),
			PostBuild: postBuildCommands(),
		},
	}
	return def, nil
}

// Trigger synthesizes the job definition and starts one build invocation.
// Safe to call on every synthesis pass; the provisioning layer
// deduplicates by correlation id.
func (s *BuildService) Trigger(ctx context.Context) (*Invocation, error) {
	def, err := s.Synthesize(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := s.executor.Trigger(ctx, def)
	if err != nil {
		return nil, errors.Wrap("trigger build", s.JobName(), err)
	}

	logging.InfoContext(ctx, "Triggered build %s for %s", inv.ID, s.name)
	return inv, nil
}

// Status queries the state of a previously triggered invocation.
func (s *BuildService) Status(ctx context.Context, invocationID string) (InvocationStatus, error) {
	return s.executor.Status(ctx, invocationID)
}

// buildEnv assembles the job's environment variables, including the
// callback binding consumed by the post-build signal commands.
func (s *BuildService) buildEnv(repo *Repository, version string) map[string]string {
	cb := s.callback
	if cb.Endpoint == "" {
		cb.Endpoint = signal.UnspecifiedEndpoint
	}
	ids := signal.CorrelationIDs{
		StackID:           cb.StackID,
		RequestID:         cb.RequestID,
		LogicalResourceID: cb.LogicalResourceID,
	}.WithPlaceholders()

	return map[string]string{
		EnvImageURI:                  repo.URI + ":" + version,
		EnvLatestURI:                 repo.URI + ":latest",
		signal.EnvLogFile:            signal.DefaultLogFile,
		signal.EnvCallbackURL:        cb.Endpoint,
		signal.EnvStackID:            ids.StackID,
		signal.EnvRequestID:          ids.RequestID,
		signal.EnvLogicalResourceID:  ids.LogicalResourceID,
		signal.EnvPhysicalResourceID: s.PhysicalResourceID(),
	}
}

// buildPhaseCommands wraps the assembled script and the image build/push
// into the build phase. Every command tees into the log file the signal
// excerpt is taken from, and fails the phase when its first pipeline stage
// fails.
func buildPhaseCommands(assembly *Assembly) []string {
	script := writeFileCommand("kiln-build.sh", trimTrailingNewlines(assembly.ScriptText()), "KILN_BUILD_SCRIPT", false)
	return []string{
		script,
		"chmod +x kiln-build.sh",
		logged("./kiln-build.sh"),
		logged(`docker build -t "$` + EnvImageURI + `" .`),
		logged(`docker push "$` + EnvImageURI + `"`),
	}
}

// postBuildCommands emits the completion signal first, then best-effort
// post-processing that must not affect the reported status.
func postBuildCommands() []string {
	commands := signal.PostBuildCommands()
	commands = append(commands,
		fmt.Sprintf(`docker tag "$%s" "$%s" && docker push "$%s" || true`, EnvImageURI, EnvLatestURI, EnvLatestURI),
	)
	return commands
}

// logged routes a command's output into the signal log file while
// preserving its exit status. PIPESTATUS requires bash; the executor's
// buildspec pins the shell accordingly.
func logged(cmd string) string {
	return fmt.Sprintf(`%s 2>&1 | tee -a "$%s"; test "${PIPESTATUS[0]}" -eq 0`, cmd, signal.EnvLogFile)
}

func trimTrailingNewlines(s string) string {
	for len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	return s
}
