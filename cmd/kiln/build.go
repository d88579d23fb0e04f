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

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilnworks/kiln/builder"
	"github.com/kilnworks/kiln/builder/codebuild"
	"github.com/kilnworks/kiln/logging"
)

type buildCmdOptions struct {
	callbackURL       string
	stackID           string
	requestID         string
	logicalResourceID string
	wait              bool
	logLines          int32
}

var buildOpts = &buildCmdOptions{}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the configured image",
	Long: `Build the configured image on AWS CodeBuild.

The build job assembles the image from the configured components, pushes
the result to the artifact repository, and delivers a completion signal to
the callback endpoint when one is bound.

Examples:
  # Trigger a build and return immediately
  kiln build

  # Trigger a build on behalf of a provisioning transaction
  kiln build --callback-url https://callback.example.com/signal \
    --stack-id stack-1 --request-id req-1 --logical-resource-id AttackBox

  # Trigger and wait for the outcome
  kiln build --wait`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildOpts.callbackURL, "callback-url", "", "Completion signal endpoint")
	buildCmd.Flags().StringVar(&buildOpts.stackID, "stack-id", "", "Provisioning transaction stack id")
	buildCmd.Flags().StringVar(&buildOpts.requestID, "request-id", "", "Provisioning transaction request id")
	buildCmd.Flags().StringVar(&buildOpts.logicalResourceID, "logical-resource-id", "", "Logical resource id within the transaction")
	buildCmd.Flags().BoolVar(&buildOpts.wait, "wait", false, "Wait for the build to finish")
	buildCmd.Flags().Int32Var(&buildOpts.logLines, "log-lines", 25, "Log lines to show when a waited build fails")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stack, err := newBuildStack(ctx)
	if err != nil {
		return err
	}

	if buildOpts.callbackURL != "" {
		stack.service.BindCallback(builder.CallbackBinding{
			Endpoint:          buildOpts.callbackURL,
			StackID:           buildOpts.stackID,
			RequestID:         buildOpts.requestID,
			LogicalResourceID: buildOpts.logicalResourceID,
		})
	}

	inv, err := stack.service.Trigger(ctx)
	if err != nil {
		return err
	}
	logging.Info("Build %s started", inv.ID)

	if err := armSchedule(ctx, stack); err != nil {
		return err
	}
	if err := attachNotifier(ctx, stack); err != nil {
		return err
	}

	if !buildOpts.wait {
		return nil
	}

	status, err := stack.executor.Wait(ctx, inv.ID)
	if err != nil {
		return err
	}
	if status != builder.StatusSucceeded {
		if lines, logErr := stack.executor.LogTail(ctx, inv.ID, buildOpts.logLines); logErr == nil {
			for _, line := range lines {
				logging.Error("%s", line)
			}
		}
		return fmt.Errorf("build %s finished with status %s", inv.ID, status)
	}

	logging.Info("Build %s succeeded", inv.ID)
	return nil
}

// armSchedule installs the rebuild schedule when the config opts into one.
func armSchedule(ctx context.Context, stack *buildStack) error {
	if stack.cfg.RebuildInterval <= 0 {
		return nil
	}
	scheduler := codebuild.NewScheduler(stack.clients, stack.cfg.ScheduleRole)
	return scheduler.Arm(ctx, stack.executor, stack.cfg.RebuildInterval)
}

// attachNotifier wires failed builds to the configured SNS topic.
func attachNotifier(ctx context.Context, stack *buildStack) error {
	if stack.cfg.FailureTopic == "" {
		return nil
	}
	notifier := codebuild.NewFailureNotifier(stack.clients, stack.cfg.FailureTopic)
	return notifier.Attach(ctx, stack.executor)
}
