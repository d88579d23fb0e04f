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

import "time"

// Option defaults. Each recognized option falls back to these when the
// caller leaves it unset.
const (
	// DefaultBaseImage is the image the default template builds from.
	DefaultBaseImage = "ubuntu:22.04"

	// DefaultTimeout bounds one build invocation. Enforced by the executor
	// backend; on timeout the build is FAILED and a completion signal is
	// still expected.
	DefaultTimeout = 1 * time.Hour

	// DefaultRebuildInterval is the cadence of scheduled rebuilds that
	// refresh base layers and security patches.
	DefaultRebuildInterval = 7 * 24 * time.Hour
)

// BuildOptions are the recognized configuration options for one build
// target. The zero value of each field selects its documented default;
// the executor backend owns the compute/image defaults, which vary by
// platform and architecture.
type BuildOptions struct {
	// ComputeType overrides the executor's default compute class.
	ComputeType string

	// BuildImage overrides the executor's default build container image.
	BuildImage string

	// BaseImage overrides the base image rendered into the template.
	// Defaults to DefaultBaseImage.
	BaseImage string

	// Timeout bounds one build invocation. Defaults to DefaultTimeout.
	Timeout time.Duration

	// RebuildInterval is the scheduled-rebuild cadence. Zero means manual
	// rebuild only: no periodic trigger is created. Negative values are
	// treated as zero.
	RebuildInterval time.Duration

	// Network pins builds inside a VPC. The zero value uses the executor's
	// default placement.
	Network NetworkPlacement
}

// WithDefaults returns a copy of the options with documented defaults
// applied. RebuildInterval is deliberately not defaulted here: a zero
// interval is the explicit no-schedule state, so opting into scheduled
// rebuilds requires setting it.
func (o BuildOptions) WithDefaults() BuildOptions {
	if o.BaseImage == "" {
		o.BaseImage = DefaultBaseImage
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RebuildInterval < 0 {
		o.RebuildInterval = 0
	}
	return o
}
