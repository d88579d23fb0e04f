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

// Package codebuild implements the build executor backend on AWS
// CodeBuild, plus the supporting collaborators that live next to it:
// S3 asset staging, ECR repository resolution, EventBridge rebuild
// scheduling, and failure notification.
package codebuild

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"

	"github.com/kilnworks/kiln/builder"
	"github.com/kilnworks/kiln/logging"
	"github.com/kilnworks/kiln/pkg/errors"
)

// ExecutorConfig configures the CodeBuild executor backend.
type ExecutorConfig struct {
	// ServiceRole is the IAM role ARN build jobs assume.
	ServiceRole string

	// LogGroup is the CloudWatch Logs group build output streams to.
	// Empty selects the CodeBuild default group.
	LogGroup string
}

// Executor runs kiln job definitions on AWS CodeBuild. An Executor is not
// safe for concurrent use; give each build variant its own instance, as
// each variant maps to its own CodeBuild project.
type Executor struct {
	clients *AWSClients
	cfg     ExecutorConfig

	// projectName of the last ensured project, consumed by the scheduler
	// and failure notifier.
	projectName string
}

var _ builder.ExecutorBackend = (*Executor)(nil)

// NewExecutor creates a CodeBuild executor backend.
func NewExecutor(clients *AWSClients, cfg ExecutorConfig) *Executor {
	return &Executor{clients: clients, cfg: cfg}
}

// defaultProfiles is the explicit fallback table mapping supported
// platform/architecture pairs to their default execution profile. The
// backend builds Linux images only; Windows pairs are deliberately absent
// and fail fast at synthesis time.
var defaultProfiles = map[builder.PlatformArch]builder.ComputeProfile{
	{Platform: builder.PlatformLinux, Arch: builder.ArchX8664}: {
		Type:            string(types.ComputeTypeBuildGeneral1Small),
		Image:           "aws/codebuild/standard:7.0",
		EnvironmentType: string(types.EnvironmentTypeLinuxContainer),
		PrivilegedMode:  true,
	},
	{Platform: builder.PlatformLinux, Arch: builder.ArchARM64}: {
		Type:            string(types.ComputeTypeBuildGeneral1Small),
		Image:           "aws/codebuild/amazonlinux2-aarch64-standard:3.0",
		EnvironmentType: string(types.EnvironmentTypeArmContainer),
		PrivilegedMode:  true,
	},
}

// Capabilities enumerates the buildable platform/architecture pairs.
func (e *Executor) Capabilities() builder.Capabilities {
	caps := make(builder.Capabilities, 0, len(defaultProfiles))
	for pa := range defaultProfiles {
		caps = append(caps, pa)
	}
	sort.Slice(caps, func(i, j int) bool {
		if caps[i].Platform != caps[j].Platform {
			return caps[i].Platform < caps[j].Platform
		}
		return caps[i].Arch < caps[j].Arch
	})
	return caps
}

// Profile returns the default compute profile for the pair. Unsupported
// pairs return a ConfigError instead of silently picking a profile.
func (e *Executor) Profile(platform builder.Platform, arch builder.Arch) (builder.ComputeProfile, error) {
	profile, ok := defaultProfiles[builder.PlatformArch{Platform: platform, Arch: arch}]
	if !ok {
		return builder.ComputeProfile{}, builder.NewConfigError(
			"executor backend cannot build %s/%s images (supported: %v)", platform, arch, e.Capabilities())
	}
	return profile, nil
}

// ProjectName returns the name of the last ensured build project, or ""
// when no project has been created yet.
func (e *Executor) ProjectName() string { return e.projectName }

// ProjectARN resolves the ARN of the executor's build project.
func (e *Executor) ProjectARN(ctx context.Context) (string, error) {
	if e.projectName == "" {
		return "", fmt.Errorf("no build project has been created")
	}
	out, err := e.clients.CodeBuild.BatchGetProjects(ctx, &codebuild.BatchGetProjectsInput{
		Names: []string{e.projectName},
	})
	if err != nil {
		return "", errors.Wrap("look up build project", e.projectName, err)
	}
	if len(out.Projects) == 0 {
		return "", fmt.Errorf("build project %s not found", e.projectName)
	}
	return aws.ToString(out.Projects[0].Arn), nil
}

// EnsureProject materializes the build project for a job definition
// without starting a build, for callers that only need the project to
// exist (schedule and notification management).
func (e *Executor) EnsureProject(ctx context.Context, def *builder.JobDefinition) error {
	return e.ensureProject(ctx, def)
}

// ensureProject creates the build project on first use and updates it on
// later synthesis passes, so trigger-now stays idempotent.
func (e *Executor) ensureProject(ctx context.Context, def *builder.JobDefinition) error {
	if !def.Network.IsZero() {
		if err := e.validateNetwork(ctx, def.Network); err != nil {
			return err
		}
	}

	buildspec, err := renderBuildspec(def)
	if err != nil {
		return err
	}

	environment := &types.ProjectEnvironment{
		ComputeType:          types.ComputeType(def.Compute.Type),
		Image:                aws.String(def.Compute.Image),
		Type:                 types.EnvironmentType(def.Compute.EnvironmentType),
		PrivilegedMode:       aws.Bool(def.Compute.PrivilegedMode),
		EnvironmentVariables: environmentVariables(def.Env),
	}
	source := &types.ProjectSource{
		Type:      types.SourceTypeNoSource,
		Buildspec: aws.String(buildspec),
	}
	artifacts := &types.ProjectArtifacts{Type: types.ArtifactsTypeNoArtifacts}
	timeout := timeoutMinutes(def.Timeout)

	var logsConfig *types.LogsConfig
	if e.cfg.LogGroup != "" {
		logsConfig = &types.LogsConfig{
			CloudWatchLogs: &types.CloudWatchLogsConfig{
				Status:    types.LogsConfigStatusTypeEnabled,
				GroupName: aws.String(e.cfg.LogGroup),
			},
		}
	}

	var vpcConfig *types.VpcConfig
	if !def.Network.IsZero() {
		vpcConfig = &types.VpcConfig{
			VpcId:            aws.String(def.Network.VpcID),
			Subnets:          def.Network.Subnets,
			SecurityGroupIds: def.Network.SecurityGroups,
		}
	}

	existing, err := e.clients.CodeBuild.BatchGetProjects(ctx, &codebuild.BatchGetProjectsInput{
		Names: []string{def.Name},
	})
	if err != nil {
		return errors.Wrap("look up build project", def.Name, err)
	}

	if len(existing.Projects) == 0 {
		_, err = e.clients.CodeBuild.CreateProject(ctx, &codebuild.CreateProjectInput{
			Name:             aws.String(def.Name),
			ServiceRole:      aws.String(e.cfg.ServiceRole),
			Environment:      environment,
			Source:           source,
			Artifacts:        artifacts,
			TimeoutInMinutes: aws.Int32(timeout),
			LogsConfig:       logsConfig,
			VpcConfig:        vpcConfig,
		})
		if err != nil {
			return errors.Wrap("create build project", def.Name, err)
		}
		logging.InfoContext(ctx, "Created build project %s", def.Name)
	} else {
		_, err = e.clients.CodeBuild.UpdateProject(ctx, &codebuild.UpdateProjectInput{
			Name:             aws.String(def.Name),
			ServiceRole:      aws.String(e.cfg.ServiceRole),
			Environment:      environment,
			Source:           source,
			Artifacts:        artifacts,
			TimeoutInMinutes: aws.Int32(timeout),
			LogsConfig:       logsConfig,
			VpcConfig:        vpcConfig,
		})
		if err != nil {
			return errors.Wrap("update build project", def.Name, err)
		}
		logging.DebugContext(ctx, "Updated build project %s", def.Name)
	}

	e.projectName = def.Name
	return nil
}

// environmentVariables converts the definition's env map into the ordered
// form the API expects. Keys are sorted so regenerated projects compare
// equal.
func environmentVariables(env map[string]string) []types.EnvironmentVariable {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make([]types.EnvironmentVariable, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, types.EnvironmentVariable{
			Name:  aws.String(k),
			Value: aws.String(env[k]),
			Type:  types.EnvironmentVariableTypePlaintext,
		})
	}
	return vars
}

// timeoutMinutes converts a timeout to whole minutes within the executor's
// accepted range.
func timeoutMinutes(d time.Duration) int32 {
	minutes := int32(d / time.Minute)
	if minutes < 5 {
		minutes = 5
	}
	if minutes > 480 {
		minutes = 480
	}
	return minutes
}
