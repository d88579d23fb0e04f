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

// Platform is the operating system family an image targets.
type Platform string

// Supported target platforms.
const (
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
)

// Arch is the CPU architecture an image targets.
type Arch string

// Supported target architectures.
const (
	ArchX8664 Arch = "x86_64"
	ArchARM64 Arch = "arm64"
)

// ParsePlatform converts a platform string to a Platform, accepting common
// aliases. Returns a ConfigError for unknown values.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linux", "ubuntu", "amazonlinux":
		return PlatformLinux, nil
	case "windows":
		return PlatformWindows, nil
	default:
		return "", NewConfigError("unknown platform %q (supported: linux, windows)", s)
	}
}

// ParseArch converts an architecture string to an Arch, accepting common
// aliases. Returns a ConfigError for unknown values.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x86_64", "amd64":
		return ArchX8664, nil
	case "arm64", "aarch64":
		return ArchARM64, nil
	default:
		return "", NewConfigError("unknown architecture %q (supported: x86_64, arm64)", s)
	}
}
