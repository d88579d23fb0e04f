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
	"strings"

	"github.com/kilnworks/kiln/pkg/errors"
)

// assetKind classifies an asset source's on-disk shape.
type assetKind int

const (
	assetFile assetKind = iota
	assetArchive
)

// Assembly is the deterministic output of one synthesis pass: the rendered
// image-definition document and the ordered build script that stages
// assets, emits install fragments, and folds directives into the document.
type Assembly struct {
	// Dockerfile is the complete rendered image-definition document.
	Dockerfile string

	// Script is the ordered list of shell commands for the build phase.
	// Entries may span multiple lines (heredocs).
	Script []string

	// StagedAssets records the remote references produced while assembling.
	StagedAssets []StagedAsset
}

// ScriptText renders the build script as a single strict-mode shell script.
func (a *Assembly) ScriptText() string {
	var b strings.Builder
	b.WriteString("#!/bin/bash -ex\n")
	b.WriteString("set -euo pipefail\n\n")
	for _, cmd := range a.Script {
		b.WriteString(cmd)
		b.WriteString("\n")
	}
	return b.String()
}

// Assembler walks an ordered component list and produces an Assembly.
// Given the same recipe and base image, the output is byte-identical
// across runs.
type Assembler struct {
	stager AssetStager
	caps   Capabilities
}

// NewAssembler creates an Assembler that stages assets through stager and
// refuses recipes outside the executor capabilities caps.
func NewAssembler(stager AssetStager, caps Capabilities) *Assembler {
	return &Assembler{stager: stager, caps: caps}
}

// Assemble validates the recipe, stages every component asset, and emits
// the build script and image-definition document.
//
// Validation runs to completion before the first staging call: a
// configuration error never leaves a partially assembled or partially
// staged build behind.
func (a *Assembler) Assemble(ctx context.Context, recipe *Recipe, baseImage string) (*Assembly, error) {
	plan, err := a.validate(recipe, baseImage)
	if err != nil {
		return nil, err
	}

	version := recipe.Version()
	head, tail := splitTemplate(recipe.Template, baseImage)

	asm := &Assembly{}
	var directives []string

	asm.Script = append(asm.Script, "mkdir -p assets")
	asm.Script = append(asm.Script, writeFileCommand("Dockerfile", head, "KILN_DOCKERFILE", false))

	emit := func(line string) {
		directives = append(directives, line)
		asm.Script = append(asm.Script, appendDockerfileCommand(line))
	}

	for i, c := range recipe.Components {
		name := sanitizeComponentName(c.Name())

		for j, asset := range c.Assets(recipe.Platform, recipe.Arch) {
			ext := filepath.Ext(asset.Source)
			if plan.assetKinds[assetRef{i, j}] == assetArchive {
				ext = ".zip"
			}
			local := fmt.Sprintf("assets/%d-%s-%d%s", i, name, j, ext)
			key := fmt.Sprintf("assets/%s/%d-%s-%d%s", version, i, name, j, ext)

			staged, err := a.stager.Stage(ctx, asset.Source, key, local)
			if err != nil {
				return nil, errors.Wrap("stage asset", asset.Source, err)
			}
			asm.StagedAssets = append(asm.StagedAssets, *staged)
			asm.Script = append(asm.Script, staged.FetchCommand)

			if ext == ".zip" {
				scratch := "/tmp/kiln/" + filepath.Base(local)
				emit(fmt.Sprintf("COPY %s %s", local, scratch))
				emit(fmt.Sprintf("RUN unzip -o %s -d %s && rm -f %s", scratch, asset.Target, scratch))
			} else {
				emit(fmt.Sprintf("COPY %s %s", local, asset.Target))
			}
		}

		if commands := c.Commands(recipe.Platform, recipe.Arch); len(commands) > 0 {
			fragment := fmt.Sprintf("install-%d-%s.sh", i, name)
			marker := fmt.Sprintf("KILN_SCRIPT_%d", i)
			body := "#!/bin/bash -ex\nset -euo pipefail\n" + strings.Join(commands, "\n")

			asm.Script = append(asm.Script, writeFileCommand(fragment, body, marker, false))
			emit(fmt.Sprintf("COPY %s /tmp/kiln/%s", fragment, fragment))
			asm.Script = append(asm.Script, fmt.Sprintf("chmod +x %s", fragment))
			emit(fmt.Sprintf("RUN /tmp/kiln/%s", fragment))
		}

		for _, directive := range c.ImageDirectives(recipe.Platform, recipe.Arch) {
			emit(directive)
		}
	}

	if tail != "" {
		asm.Script = append(asm.Script, writeFileCommand("Dockerfile", tail, "KILN_DOCKERFILE_TAIL", true))
	}

	asm.Dockerfile = renderDockerfile(head, directives, tail)
	return asm, nil
}

// assetRef addresses one asset by component index and asset index.
type assetRef struct {
	component int
	asset     int
}

// assemblyPlan carries validation results into the emission pass.
type assemblyPlan struct {
	assetKinds map[assetRef]assetKind
}

// validate fails fast with a ConfigError on any condition that would make
// the build unexecutable, before any remote call is made.
func (a *Assembler) validate(recipe *Recipe, baseImage string) (*assemblyPlan, error) {
	if baseImage == "" {
		return nil, NewConfigError("base image must not be empty")
	}
	if !strings.Contains(recipe.Template, BaseImagePlaceholder) {
		return nil, NewConfigError("template is missing required placeholder %s", BaseImagePlaceholder)
	}
	switch strings.Count(recipe.Template, DirectivesPlaceholder) {
	case 0:
		return nil, NewConfigError("template is missing required placeholder %s", DirectivesPlaceholder)
	case 1:
	default:
		return nil, NewConfigError("template contains placeholder %s more than once", DirectivesPlaceholder)
	}
	if !a.caps.Supports(recipe.Platform, recipe.Arch) {
		return nil, NewConfigError("executor cannot build platform %s/%s", recipe.Platform, recipe.Arch)
	}

	plan := &assemblyPlan{assetKinds: make(map[assetRef]assetKind)}
	for i, c := range recipe.Components {
		for j, asset := range c.Assets(recipe.Platform, recipe.Arch) {
			kind, err := classifyAsset(asset)
			if err != nil {
				return nil, err
			}
			plan.assetKinds[assetRef{i, j}] = kind
		}
	}
	return plan, nil
}

// classifyAsset determines whether an asset source is a single file or a
// directory archive. Anything else is a configuration error, not a
// silent skip.
func classifyAsset(asset Asset) (assetKind, error) {
	if asset.Target == "" {
		return 0, NewConfigError("asset %q has no target path", asset.Source)
	}

	info, err := os.Stat(asset.Source)
	if err != nil {
		return 0, NewConfigError("asset source %q is not readable: %v", asset.Source, err)
	}
	switch {
	case info.Mode().IsRegular():
		return assetFile, nil
	case info.IsDir():
		return assetArchive, nil
	default:
		return 0, NewConfigError("asset source %q is neither a file nor a directory", asset.Source)
	}
}

// splitTemplate renders the base image into the template and splits it at
// the directives placeholder.
func splitTemplate(template, baseImage string) (head, tail string) {
	rendered := strings.ReplaceAll(template, BaseImagePlaceholder, baseImage)
	idx := strings.Index(rendered, DirectivesPlaceholder)
	head = strings.TrimRight(rendered[:idx], "\n")
	tail = strings.Trim(rendered[idx+len(DirectivesPlaceholder):], "\n")
	return head, tail
}

// renderDockerfile joins the template head, the component directives, and
// the template tail into the final image-definition document.
func renderDockerfile(head string, directives []string, tail string) string {
	parts := make([]string, 0, len(directives)+2)
	if head != "" {
		parts = append(parts, head)
	}
	parts = append(parts, directives...)
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, "\n") + "\n"
}

// shellQuote single-quotes s for safe inclusion in a shell command.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// writeFileCommand emits a heredoc command that writes (or appends to)
// path. The marker must not occur in body; markers are namespaced per
// component index so fragments never collide.
func writeFileCommand(path, body, marker string, appendTo bool) string {
	redirect := ">"
	if appendTo {
		redirect = ">>"
	}
	return fmt.Sprintf("cat %s %s <<'%s'\n%s\n%s", redirect, path, marker, body, marker)
}

// appendDockerfileCommand emits a command appending one directive line to
// the Dockerfile under assembly.
func appendDockerfileCommand(line string) string {
	return fmt.Sprintf("printf '%%s\\n' %s >> Dockerfile", shellQuote(line))
}
