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

// Package config loads and validates kiln build target configuration from
// YAML files and environment variables.
package config

import (
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/viper"

	"github.com/kilnworks/kiln/builder"
	"github.com/kilnworks/kiln/pkg/errors"
)

// minStandardImageVersion is the oldest aws/codebuild/standard image tag
// with a Docker daemon recent enough for privileged image builds.
var minStandardImageVersion = semver.MustParse("5.0")

// AssetConfig declares one file or directory copied into the image.
type AssetConfig struct {
	Source string `mapstructure:"source"`
	Target string `mapstructure:"target"`
}

// ComponentConfig declares one ordered provisioning component.
type ComponentConfig struct {
	Name       string        `mapstructure:"name"`
	Assets     []AssetConfig `mapstructure:"assets"`
	Commands   []string      `mapstructure:"commands"`
	Directives []string      `mapstructure:"directives"`
}

// NetworkConfig pins builds inside a VPC.
type NetworkConfig struct {
	VpcID          string   `mapstructure:"vpc_id"`
	Subnets        []string `mapstructure:"subnets"`
	SecurityGroups []string `mapstructure:"security_groups"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`
}

// Config is one build target: what image to produce, out of which
// components, and on which AWS resources.
type Config struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`

	ImageName     string `mapstructure:"image_name"`
	StagingBucket string `mapstructure:"staging_bucket"`
	Repository    string `mapstructure:"repository"`
	ServiceRole   string `mapstructure:"service_role"`
	ScheduleRole  string `mapstructure:"schedule_role"`
	FailureTopic  string `mapstructure:"failure_topic"`

	Platform string `mapstructure:"platform"`
	Arch     string `mapstructure:"arch"`

	BaseImage   string `mapstructure:"base_image"`
	Template    string `mapstructure:"template"`
	ComputeType string `mapstructure:"compute_type"`
	BuildImage  string `mapstructure:"build_image"`

	Timeout         time.Duration `mapstructure:"timeout"`
	RebuildInterval time.Duration `mapstructure:"rebuild_interval"`

	Network    NetworkConfig     `mapstructure:"network"`
	Components []ComponentConfig `mapstructure:"components"`
	Log        LogConfig         `mapstructure:"log"`
}

// Load reads a build target configuration from path. Environment variables
// prefixed with KILN_ override file values (KILN_REGION, KILN_IMAGE_NAME,
// and so on).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("kiln")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("platform", string(builder.PlatformLinux))
	v.SetDefault("arch", string(builder.ArchX8664))

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap("read config file", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap("parse config file", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for problems that would fail a build
// later. It returns a ConfigError describing the first problem found.
func (c *Config) Validate() error {
	if c.ImageName == "" {
		return builder.NewConfigError("image_name is required")
	}
	if c.StagingBucket == "" {
		return builder.NewConfigError("staging_bucket is required")
	}
	if c.Repository == "" {
		return builder.NewConfigError("repository is required")
	}
	if c.ServiceRole == "" {
		return builder.NewConfigError("service_role is required")
	}

	if _, err := builder.ParsePlatform(c.Platform); err != nil {
		return err
	}
	if _, err := builder.ParseArch(c.Arch); err != nil {
		return err
	}

	if len(c.Components) == 0 {
		return builder.NewConfigError("at least one component is required")
	}
	for i, comp := range c.Components {
		if comp.Name == "" {
			return builder.NewConfigError("component %d has no name", i)
		}
		for j, asset := range comp.Assets {
			if asset.Source == "" || asset.Target == "" {
				return builder.NewConfigError("component %q asset %d needs both source and target", comp.Name, j)
			}
		}
	}

	if c.RebuildInterval != 0 && c.RebuildInterval < time.Minute {
		return builder.NewConfigError("rebuild_interval %s is below the one minute minimum", c.RebuildInterval)
	}

	return c.validateBuildImage()
}

// validateBuildImage gates overridden aws/codebuild/standard images on the
// minimum tag that supports privileged Docker builds. Other image families
// are passed through to the executor unchecked.
func (c *Config) validateBuildImage() error {
	const standardPrefix = "aws/codebuild/standard:"
	if !strings.HasPrefix(c.BuildImage, standardPrefix) {
		return nil
	}

	tag := strings.TrimPrefix(c.BuildImage, standardPrefix)
	version, err := semver.NewVersion(tag)
	if err != nil {
		return builder.NewConfigError("build_image tag %q is not a valid version", tag)
	}
	if version.LessThan(minStandardImageVersion) {
		return builder.NewConfigError(
			"build_image %s is too old for privileged image builds (minimum %s)",
			c.BuildImage, standardPrefix+minStandardImageVersion.String())
	}
	return nil
}

// Recipe converts the validated configuration into a build recipe.
func (c *Config) Recipe() (*builder.Recipe, error) {
	platform, err := builder.ParsePlatform(c.Platform)
	if err != nil {
		return nil, err
	}
	arch, err := builder.ParseArch(c.Arch)
	if err != nil {
		return nil, err
	}

	components := make([]builder.Component, 0, len(c.Components))
	for _, comp := range c.Components {
		assets := make([]builder.Asset, 0, len(comp.Assets))
		for _, asset := range comp.Assets {
			assets = append(assets, builder.Asset{Source: asset.Source, Target: asset.Target})
		}
		components = append(components, &builder.StaticComponent{
			ComponentName:   comp.Name,
			AssetList:       assets,
			InstallCommands: comp.Commands,
			Directives:      comp.Directives,
		})
	}

	return builder.NewRecipe(platform, arch, components, c.Template), nil
}

// BuildOptions converts the configuration's option fields.
func (c *Config) BuildOptions() builder.BuildOptions {
	return builder.BuildOptions{
		ComputeType:     c.ComputeType,
		BuildImage:      c.BuildImage,
		BaseImage:       c.BaseImage,
		Timeout:         c.Timeout,
		RebuildInterval: c.RebuildInterval,
		Network: builder.NetworkPlacement{
			VpcID:          c.Network.VpcID,
			Subnets:        c.Network.Subnets,
			SecurityGroups: c.Network.SecurityGroups,
		},
	}
}
