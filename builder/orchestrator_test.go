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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerAllPreservesOrder(t *testing.T) {
	t.Parallel()

	services := make([]*BuildService, 3)
	names := []string{"alpha", "bravo", "charlie"}
	for i, name := range names {
		recipe := NewRecipe(PlatformLinux, ArchX8664, nil, "")
		services[i] = NewBuildService(name, recipe, BuildOptions{}, &fakeStager{}, &fakeRegistry{}, &fakeExecutor{})
	}

	invocations, err := NewBuildOrchestrator(2).TriggerAll(context.Background(), services)
	require.NoError(t, err)

	require.Len(t, invocations, 3)
	for i, name := range names {
		require.NotNil(t, invocations[i])
		assert.Contains(t, invocations[i].ID, "kiln-build-"+name)
	}
}

func TestTriggerAllStopsOnFirstError(t *testing.T) {
	t.Parallel()

	good := NewBuildService("good", NewRecipe(PlatformLinux, ArchX8664, nil, ""),
		BuildOptions{}, &fakeStager{}, &fakeRegistry{}, &fakeExecutor{})
	bad := NewBuildService("bad", NewRecipe(PlatformLinux, ArchX8664, nil, ""),
		BuildOptions{}, &fakeStager{}, &fakeRegistry{}, &fakeExecutor{triggerErr: assert.AnError})

	_, err := NewBuildOrchestrator(1).TriggerAll(context.Background(), []*BuildService{good, bad})
	require.Error(t, err)
}

func TestTriggerAllEmpty(t *testing.T) {
	t.Parallel()

	invocations, err := NewBuildOrchestrator(0).TriggerAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, invocations)
}
