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
	"github.com/spf13/cobra"

	"github.com/kilnworks/kiln/builder/codebuild"
	"github.com/kilnworks/kiln/logging"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the configured image outside any provisioning transaction",
	Long: `Rebuild the configured image to pick up base image updates and
security patches. No callback is bound: the build runs with placeholder
correlation identifiers and skips signal delivery, exactly like a
scheduled rebuild.`,
	RunE: runRebuild,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage the periodic rebuild schedule",
}

var scheduleArmCmd = &cobra.Command{
	Use:   "arm",
	Short: "Install the rebuild schedule from the configured interval",
	RunE:  runScheduleArm,
}

var scheduleDisarmCmd = &cobra.Command{
	Use:   "disarm",
	Short: "Remove the rebuild schedule",
	RunE:  runScheduleDisarm,
}

func init() {
	scheduleCmd.AddCommand(scheduleArmCmd)
	scheduleCmd.AddCommand(scheduleDisarmCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stack, err := newBuildStack(ctx)
	if err != nil {
		return err
	}

	inv, err := stack.service.Trigger(ctx)
	if err != nil {
		return err
	}

	logging.Info("Rebuild %s started for %s", inv.ID, stack.service.Name())
	return nil
}

func runScheduleArm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stack, err := newBuildStack(ctx)
	if err != nil {
		return err
	}

	// The schedule targets the build project; materialize it so the rule
	// has something to point at even before the first manual build.
	def, err := stack.service.Synthesize(ctx)
	if err != nil {
		return err
	}
	if err := stack.executor.EnsureProject(ctx, def); err != nil {
		return err
	}

	scheduler := codebuild.NewScheduler(stack.clients, stack.cfg.ScheduleRole)
	return scheduler.Arm(ctx, stack.executor, stack.cfg.RebuildInterval)
}

func runScheduleDisarm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stack, err := newBuildStack(ctx)
	if err != nil {
		return err
	}

	// Resolve the project name the rule is keyed on without triggering.
	def, err := stack.service.Synthesize(ctx)
	if err != nil {
		return err
	}
	if err := stack.executor.EnsureProject(ctx, def); err != nil {
		return err
	}

	scheduler := codebuild.NewScheduler(stack.clients, stack.cfg.ScheduleRole)
	return scheduler.Disarm(ctx, stack.executor)
}
