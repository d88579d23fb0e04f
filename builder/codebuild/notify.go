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
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/kilnworks/kiln/builder"
	"github.com/kilnworks/kiln/logging"
	"github.com/kilnworks/kiln/pkg/errors"
)

// FailureNotifier wires failed builds to an SNS topic through an
// EventBridge rule. Notification is opt-in: nothing is installed until
// Attach is called.
type FailureNotifier struct {
	clients  *AWSClients
	topicARN string
}

// NewFailureNotifier creates a notifier publishing to the given topic.
func NewFailureNotifier(clients *AWSClients, topicARN string) *FailureNotifier {
	return &FailureNotifier{clients: clients, topicARN: topicARN}
}

// buildFailurePattern is the EventBridge event pattern matching failed
// builds of a single project.
type buildFailurePattern struct {
	Source     []string                  `json:"source"`
	DetailType []string                  `json:"detail-type"`
	Detail     buildFailurePatternDetail `json:"detail"`
}

type buildFailurePatternDetail struct {
	BuildStatus []string `json:"build-status"`
	ProjectName []string `json:"project-name"`
}

// Attach installs a failure rule for every executor's build project.
// Executors that have not created a project yet are skipped with a
// warning rather than failing the whole attach.
func (n *FailureNotifier) Attach(ctx context.Context, executors ...*Executor) error {
	if n.topicARN == "" {
		return builder.NewConfigError("failure notification requires an SNS topic ARN")
	}

	_, err := n.clients.SNS.GetTopicAttributes(ctx, &sns.GetTopicAttributesInput{
		TopicArn: aws.String(n.topicARN),
	})
	if err != nil {
		return builder.NewConfigError("failure topic %s is not accessible: %v", n.topicARN, err)
	}

	for _, executor := range executors {
		project := executor.ProjectName()
		if project == "" {
			logging.WarnContext(ctx, "Skipping failure notification for executor with no build project")
			continue
		}
		if err := n.attachProject(ctx, project); err != nil {
			return err
		}
	}
	return nil
}

func (n *FailureNotifier) attachProject(ctx context.Context, project string) error {
	pattern, err := json.Marshal(buildFailurePattern{
		Source:     []string{"aws.codebuild"},
		DetailType: []string{"CodeBuild Build State Change"},
		Detail: buildFailurePatternDetail{
			BuildStatus: []string{"FAILED"},
			ProjectName: []string{project},
		},
	})
	if err != nil {
		return errors.Wrap("marshal failure event pattern", project, err)
	}

	name := "kiln-failures-" + project
	_, err = n.clients.EventBridge.PutRule(ctx, &eventbridge.PutRuleInput{
		Name:         aws.String(name),
		EventPattern: aws.String(string(pattern)),
		State:        types.RuleStateEnabled,
		Description:  aws.String("Publishes failed kiln builds of " + project),
	})
	if err != nil {
		return errors.Wrap("put failure rule", name, err)
	}

	_, err = n.clients.EventBridge.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule: aws.String(name),
		Targets: []types.Target{
			{
				Id:  aws.String("kiln-failure-topic"),
				Arn: aws.String(n.topicARN),
			},
		},
	})
	if err != nil {
		return errors.Wrap("put failure rule target", name, err)
	}

	logging.InfoContext(ctx, "Attached failure notification for %s", project)
	return nil
}
