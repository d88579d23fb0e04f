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
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"

	"github.com/kilnworks/kiln/builder"
	"github.com/kilnworks/kiln/logging"
	"github.com/kilnworks/kiln/pkg/errors"
)

// defaultPollInterval controls how often Wait checks build status.
const defaultPollInterval = 15 * time.Second

// Trigger ensures the build project matches the definition and starts a
// build. The returned invocation ID is the CodeBuild build ID.
func (e *Executor) Trigger(ctx context.Context, def *builder.JobDefinition) (*builder.Invocation, error) {
	if err := e.ensureProject(ctx, def); err != nil {
		return nil, err
	}

	out, err := e.clients.CodeBuild.StartBuild(ctx, &codebuild.StartBuildInput{
		ProjectName: aws.String(def.Name),
	})
	if err != nil {
		return nil, errors.Wrap("start build", def.Name, err)
	}

	id := aws.ToString(out.Build.Id)
	logging.InfoContext(ctx, "Started build %s", id)
	return &builder.Invocation{ID: id, Status: mapBuildStatus(out.Build.BuildStatus)}, nil
}

// Status reports the current status of a build invocation.
func (e *Executor) Status(ctx context.Context, invocationID string) (builder.InvocationStatus, error) {
	out, err := e.clients.CodeBuild.BatchGetBuilds(ctx, &codebuild.BatchGetBuildsInput{
		Ids: []string{invocationID},
	})
	if err != nil {
		return "", errors.Wrap("get build status", invocationID, err)
	}
	if len(out.Builds) == 0 {
		return "", fmt.Errorf("build %s not found", invocationID)
	}
	return mapBuildStatus(out.Builds[0].BuildStatus), nil
}

// Wait polls until the invocation reaches a terminal status or the context
// is canceled.
func (e *Executor) Wait(ctx context.Context, invocationID string) (builder.InvocationStatus, error) {
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		status, err := e.Status(ctx, invocationID)
		if err != nil {
			return "", err
		}
		if status.Terminal() {
			return status, nil
		}
		logging.DebugContext(ctx, "Build %s is %s", invocationID, status)

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

// LogTail fetches the most recent log events for an invocation from
// CloudWatch Logs. Builds without a log stream yet return no lines.
func (e *Executor) LogTail(ctx context.Context, invocationID string, limit int32) ([]string, error) {
	out, err := e.clients.CodeBuild.BatchGetBuilds(ctx, &codebuild.BatchGetBuildsInput{
		Ids: []string{invocationID},
	})
	if err != nil {
		return nil, errors.Wrap("get build logs location", invocationID, err)
	}
	if len(out.Builds) == 0 {
		return nil, fmt.Errorf("build %s not found", invocationID)
	}
	logs := out.Builds[0].Logs
	if logs == nil || aws.ToString(logs.GroupName) == "" || aws.ToString(logs.StreamName) == "" {
		return nil, nil
	}

	events, err := e.clients.CloudWatchLogs.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  logs.GroupName,
		LogStreamName: logs.StreamName,
		Limit:         aws.Int32(limit),
		StartFromHead: aws.Bool(false),
	})
	if err != nil {
		return nil, errors.Wrap("get build log events", invocationID, err)
	}

	lines := make([]string, 0, len(events.Events))
	for _, ev := range events.Events {
		lines = append(lines, aws.ToString(ev.Message))
	}
	return lines, nil
}

// mapBuildStatus converts CodeBuild build states into invocation statuses.
func mapBuildStatus(status types.StatusType) builder.InvocationStatus {
	switch status {
	case types.StatusTypeSucceeded:
		return builder.StatusSucceeded
	case types.StatusTypeFailed, types.StatusTypeFault, types.StatusTypeStopped, types.StatusTypeTimedOut:
		return builder.StatusFailed
	case types.StatusTypeInProgress:
		return builder.StatusRunning
	default:
		return builder.StatusPending
	}
}
