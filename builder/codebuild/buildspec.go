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

package codebuild

import (
	"gopkg.in/yaml.v3"

	"github.com/kilnworks/kiln/builder"
	"github.com/kilnworks/kiln/pkg/errors"
)

// buildspecVersion is the CodeBuild buildspec schema version we emit.
const buildspecVersion = "0.2"

type buildspecPhase struct {
	Commands []string `yaml:"commands"`
}

type buildspecPhases struct {
	PreBuild  *buildspecPhase `yaml:"pre_build,omitempty"`
	Build     *buildspecPhase `yaml:"build,omitempty"`
	PostBuild *buildspecPhase `yaml:"post_build,omitempty"`
}

type buildspecEnv struct {
	Shell string `yaml:"shell"`
}

type buildspecDoc struct {
	Version string          `yaml:"version"`
	Env     buildspecEnv    `yaml:"env"`
	Phases  buildspecPhases `yaml:"phases"`
}

// renderBuildspec serializes a job definition's phases into a buildspec
// document. The shell is pinned to bash: the emitted commands use
// PIPESTATUS to capture exit codes through the tee pipeline, which the
// default sh on the standard images rejects. Environment variables are
// deliberately not embedded here; they ride on the project environment so
// the buildspec stays a pure function of the phases. Identical phases
// render byte-identically.
func renderBuildspec(def *builder.JobDefinition) (string, error) {
	doc := buildspecDoc{
		Version: buildspecVersion,
		Env:     buildspecEnv{Shell: "bash"},
	}

	if len(def.Phases.PreBuild) > 0 {
		doc.Phases.PreBuild = &buildspecPhase{Commands: def.Phases.PreBuild}
	}
	if len(def.Phases.Build) > 0 {
		doc.Phases.Build = &buildspecPhase{Commands: def.Phases.Build}
	}
	if len(def.Phases.PostBuild) > 0 {
		doc.Phases.PostBuild = &buildspecPhase{Commands: def.Phases.PostBuild}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", errors.Wrap("render buildspec", def.Name, err)
	}
	return string(out), nil
}
