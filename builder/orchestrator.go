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

	"golang.org/x/sync/errgroup"

	"github.com/kilnworks/kiln/logging"
)

// DefaultMaxConcurrency bounds parallel build triggers when the caller
// does not choose a limit.
const DefaultMaxConcurrency = 4

// BuildOrchestrator triggers independent platform/architecture variants in
// parallel. Each service must own its own stager and executor instances;
// variants share nothing but the artifact registry, which each invocation
// writes under its own unique tag, so no coordination is needed here.
type BuildOrchestrator struct {
	maxConcurrency int
}

// NewBuildOrchestrator creates an orchestrator with the given concurrency
// limit. Non-positive limits select DefaultMaxConcurrency.
func NewBuildOrchestrator(maxConcurrency int) *BuildOrchestrator {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &BuildOrchestrator{maxConcurrency: maxConcurrency}
}

// TriggerAll triggers every service and returns the invocations in input
// order. The first error cancels the remaining triggers.
func (o *BuildOrchestrator) TriggerAll(ctx context.Context, services []*BuildService) ([]*Invocation, error) {
	invocations := make([]*Invocation, len(services))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrency)

	for i, svc := range services {
		g.Go(func() error {
			inv, err := svc.Trigger(ctx)
			if err != nil {
				return err
			}
			invocations[i] = inv
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.InfoContext(ctx, "Triggered %d build variant(s)", len(invocations))
	return invocations, nil
}
