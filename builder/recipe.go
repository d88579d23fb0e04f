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
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Template placeholders. A recipe template must contain both.
const (
	// BaseImagePlaceholder is replaced with the base image reference.
	BaseImagePlaceholder = "{{kiln:baseImage}}"

	// DirectivesPlaceholder marks where component-contributed image
	// directives are folded into the template.
	DirectivesPlaceholder = "{{kiln:directives}}"
)

// DefaultTemplate is the minimal image-definition template used when a
// recipe does not supply its own.
const DefaultTemplate = "FROM " + BaseImagePlaceholder + "\n" + DirectivesPlaceholder + "\n"

// VersionLength is the length of a recipe version token.
//
// A version token is the lowercase-hex SHA-256 digest of the recipe's
// canonical serialization truncated to VersionLength characters. The
// encoding is part of the external contract: registry tags derived from it
// must match prior versions across runs and process restarts, and the
// charset must stay within what image registries accept for tags.
const VersionLength = 16

// Recipe is the versioned tuple that fully determines a build: target
// platform and architecture, the ordered component list, and the
// image-definition template. A Recipe is immutable once constructed; any
// change is a new Recipe and therefore a new version.
type Recipe struct {
	Platform   Platform
	Arch       Arch
	Components []Component
	Template   string
}

// NewRecipe constructs a Recipe. An empty template selects DefaultTemplate.
// Components are referenced, not copied; callers must not mutate them
// after construction.
func NewRecipe(platform Platform, arch Arch, components []Component, template string) *Recipe {
	if template == "" {
		template = DefaultTemplate
	}
	return &Recipe{
		Platform:   platform,
		Arch:       arch,
		Components: components,
		Template:   template,
	}
}

// Version derives the recipe's content-addressed version token.
//
// The token is a pure function of (platform, arch, ordered component
// identities, template): equal inputs always produce the identical token,
// and component order is significant. No timestamps or random values
// participate.
func (r *Recipe) Version() string {
	var b strings.Builder
	fmt.Fprintf(&b, "platform=%s\n", r.Platform)
	fmt.Fprintf(&b, "arch=%s\n", r.Arch)
	for i, c := range r.Components {
		fmt.Fprintf(&b, "component[%d]=%s\n", i, ComponentIdentity(c, r.Platform, r.Arch))
	}
	fmt.Fprintf(&b, "template=%s\n", digest.FromString(r.Template).Encoded())

	return digest.FromString(b.String()).Encoded()[:VersionLength]
}

// ComponentIdentity derives a component's identity token from its full
// configuration under the given platform and architecture, not just its
// name: every asset descriptor, install command, and image directive
// participates, so any change to what a component contributes changes its
// identity and thereby the recipe version.
func ComponentIdentity(c Component, platform Platform, arch Arch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name=%q\n", c.Name())
	for j, asset := range c.Assets(platform, arch) {
		fmt.Fprintf(&b, "asset[%d]=%q=>%q\n", j, asset.Source, asset.Target)
	}
	for j, cmd := range c.Commands(platform, arch) {
		fmt.Fprintf(&b, "command[%d]=%q\n", j, cmd)
	}
	for j, directive := range c.ImageDirectives(platform, arch) {
		fmt.Fprintf(&b, "directive[%d]=%q\n", j, directive)
	}

	return digest.FromString(b.String()).Encoded()[:VersionLength]
}
