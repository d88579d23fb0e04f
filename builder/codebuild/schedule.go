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
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/kilnworks/kiln/builder"
	"github.com/kilnworks/kiln/logging"
	"github.com/kilnworks/kiln/pkg/errors"
)

// Scheduler manages the EventBridge rule that rebuilds an image on a
// fixed interval so base-image drift gets picked up without operator
// action.
type Scheduler struct {
	clients *AWSClients

	// roleARN is the IAM role EventBridge assumes to start builds.
	roleARN string
}

// NewScheduler creates a rebuild scheduler.
func NewScheduler(clients *AWSClients, roleARN string) *Scheduler {
	return &Scheduler{clients: clients, roleARN: roleARN}
}

// ruleName derives the schedule rule name for a build project.
func ruleName(projectName string) string {
	return "kiln-rebuild-" + projectName
}

// Arm installs (or updates) the rebuild schedule for the executor's build
// project. A zero or negative interval means scheduled rebuilds are
// disabled and Arm does nothing.
func (s *Scheduler) Arm(ctx context.Context, executor *Executor, interval time.Duration) error {
	if interval <= 0 {
		logging.DebugContext(ctx, "Scheduled rebuilds disabled")
		return nil
	}
	if s.roleARN == "" {
		return builder.NewConfigError("scheduled rebuilds require a schedule role ARN")
	}

	expr, err := rateExpression(interval)
	if err != nil {
		return err
	}

	projectARN, err := executor.ProjectARN(ctx)
	if err != nil {
		return err
	}
	name := ruleName(executor.ProjectName())

	_, err = s.clients.EventBridge.PutRule(ctx, &eventbridge.PutRuleInput{
		Name:               aws.String(name),
		ScheduleExpression: aws.String(expr),
		State:              types.RuleStateEnabled,
		Description:        aws.String(fmt.Sprintf("Rebuilds %s on a %s cadence", executor.ProjectName(), expr)),
	})
	if err != nil {
		return errors.Wrap("put schedule rule", name, err)
	}

	_, err = s.clients.EventBridge.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule: aws.String(name),
		Targets: []types.Target{
			{
				Id:      aws.String("kiln-build"),
				Arn:     aws.String(projectARN),
				RoleArn: aws.String(s.roleARN),
			},
		},
	})
	if err != nil {
		return errors.Wrap("put schedule target", name, err)
	}

	logging.InfoContext(ctx, "Armed rebuild schedule %s (%s)", name, expr)
	return nil
}

// Disarm removes the rebuild schedule for the executor's build project.
// A missing rule is not an error.
func (s *Scheduler) Disarm(ctx context.Context, executor *Executor) error {
	if executor.ProjectName() == "" {
		return nil
	}
	name := ruleName(executor.ProjectName())

	_, err := s.clients.EventBridge.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
		Rule: aws.String(name),
		Ids:  []string{"kiln-build"},
	})
	if err != nil {
		logging.DebugContext(ctx, "No schedule targets to remove for %s: %v", name, err)
	}

	_, err = s.clients.EventBridge.DeleteRule(ctx, &eventbridge.DeleteRuleInput{
		Name: aws.String(name),
	})
	if err != nil {
		logging.DebugContext(ctx, "No schedule rule to delete for %s: %v", name, err)
	}
	return nil
}

// rateExpression converts a rebuild interval into an EventBridge rate
// expression. Intervals snap to the coarsest whole unit that represents
// them exactly; sub-minute intervals are rejected.
func rateExpression(interval time.Duration) (string, error) {
	if interval < time.Minute {
		return "", builder.NewConfigError("rebuild interval %s is below the one minute minimum", interval)
	}

	unit := "minute"
	value := int64(interval / time.Minute)
	switch {
	case interval%(24*time.Hour) == 0:
		unit = "day"
		value = int64(interval / (24 * time.Hour))
	case interval%time.Hour == 0:
		unit = "hour"
		value = int64(interval / time.Hour)
	case interval%time.Minute != 0:
		return "", builder.NewConfigError("rebuild interval %s is not a whole number of minutes", interval)
	}

	if value != 1 {
		unit += "s"
	}
	return fmt.Sprintf("rate(%d %s)", value, unit), nil
}
