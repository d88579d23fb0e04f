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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testComponents() []Component {
	return []Component{
		&StaticComponent{
			ComponentName:   "base-tools",
			InstallCommands: []string{"apt-get update", "apt-get install -y curl"},
		},
		&StaticComponent{
			ComponentName: "scanner",
			AssetList: []Asset{
				{Source: "/assets/scanner.tar.gz", Target: "/opt/scanner.tar.gz"},
			},
			InstallCommands: []string{"tar -xzf /opt/scanner.tar.gz -C /opt"},
			Directives:      []string{`ENV PATH="/opt/scanner/bin:$PATH"`},
		},
	}
}

func TestVersionIsDeterministic(t *testing.T) {
	t.Parallel()

	first := NewRecipe(PlatformLinux, ArchX8664, testComponents(), "")
	second := NewRecipe(PlatformLinux, ArchX8664, testComponents(), "")

	assert.Equal(t, first.Version(), second.Version())
}

func TestVersionFormat(t *testing.T) {
	t.Parallel()

	version := NewRecipe(PlatformLinux, ArchX8664, testComponents(), "").Version()

	require.Len(t, version, VersionLength)
	for _, r := range version {
		ok := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		assert.True(t, ok, "version %q contains non-hex character %q", version, r)
	}
}

func TestVersionIsOrderSensitive(t *testing.T) {
	t.Parallel()

	components := testComponents()
	reversed := []Component{components[1], components[0]}

	forward := NewRecipe(PlatformLinux, ArchX8664, components, "")
	backward := NewRecipe(PlatformLinux, ArchX8664, reversed, "")

	assert.NotEqual(t, forward.Version(), backward.Version())
}

func TestVersionChangesWithInputs(t *testing.T) {
	t.Parallel()

	base := NewRecipe(PlatformLinux, ArchX8664, testComponents(), "").Version()

	tests := []struct {
		name   string
		recipe *Recipe
	}{
		{
			name:   "different platform",
			recipe: NewRecipe(PlatformWindows, ArchX8664, testComponents(), ""),
		},
		{
			name:   "different architecture",
			recipe: NewRecipe(PlatformLinux, ArchARM64, testComponents(), ""),
		},
		{
			name: "different template",
			recipe: NewRecipe(PlatformLinux, ArchX8664, testComponents(),
				"FROM "+BaseImagePlaceholder+"\nLABEL v=2\n"+DirectivesPlaceholder+"\n"),
		},
		{
			name: "changed install command",
			recipe: NewRecipe(PlatformLinux, ArchX8664, []Component{
				&StaticComponent{
					ComponentName:   "base-tools",
					InstallCommands: []string{"apt-get update", "apt-get install -y wget"},
				},
				testComponents()[1],
			}, ""),
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.NotEqual(t, base, tc.recipe.Version())
		})
	}
}

func TestComponentIdentityCoversFullConfiguration(t *testing.T) {
	t.Parallel()

	base := &StaticComponent{
		ComponentName: "tools",
		AssetList:     []Asset{{Source: "/a", Target: "/b"}},
	}
	changedTarget := &StaticComponent{
		ComponentName: "tools",
		AssetList:     []Asset{{Source: "/a", Target: "/c"}},
	}
	changedDirective := &StaticComponent{
		ComponentName: "tools",
		AssetList:     []Asset{{Source: "/a", Target: "/b"}},
		Directives:    []string{"USER nobody"},
	}

	id := ComponentIdentity(base, PlatformLinux, ArchX8664)
	assert.NotEqual(t, id, ComponentIdentity(changedTarget, PlatformLinux, ArchX8664))
	assert.NotEqual(t, id, ComponentIdentity(changedDirective, PlatformLinux, ArchX8664))
}

func TestNewRecipeDefaultsTemplate(t *testing.T) {
	t.Parallel()

	recipe := NewRecipe(PlatformLinux, ArchX8664, nil, "")
	assert.Equal(t, DefaultTemplate, recipe.Template)

	custom := "FROM " + BaseImagePlaceholder + "\n" + DirectivesPlaceholder + "\nUSER app\n"
	recipe = NewRecipe(PlatformLinux, ArchX8664, nil, custom)
	assert.Equal(t, custom, recipe.Template)
}
