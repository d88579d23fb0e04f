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

import "strings"

// StaticComponent is a Component whose contributions are fixed lists,
// independent of platform and architecture. It is the building block for
// components declared in a config file.
type StaticComponent struct {
	ComponentName   string
	AssetList       []Asset
	InstallCommands []string
	Directives      []string
}

var _ Component = (*StaticComponent)(nil)

// Name returns the component's name.
func (c *StaticComponent) Name() string { return c.ComponentName }

// Assets returns the component's asset descriptors.
func (c *StaticComponent) Assets(_ Platform, _ Arch) []Asset {
	return c.AssetList
}

// Commands returns the component's install commands.
func (c *StaticComponent) Commands(_ Platform, _ Arch) []string {
	return c.InstallCommands
}

// ImageDirectives returns the component's raw image directives.
func (c *StaticComponent) ImageDirectives(_ Platform, _ Arch) []string {
	return c.Directives
}

// sanitizeComponentName maps a component name to the restricted character
// set used in generated file names and staging keys. The mapping is
// deterministic so identical inputs keep identical names.
func sanitizeComponentName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "component"
	}
	return s
}
