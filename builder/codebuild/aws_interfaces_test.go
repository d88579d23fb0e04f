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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	cbtypes "github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type mockCodeBuildAPI struct {
	CreateProjectFunc    func(ctx context.Context, params *codebuild.CreateProjectInput, optFns ...func(*codebuild.Options)) (*codebuild.CreateProjectOutput, error)
	UpdateProjectFunc    func(ctx context.Context, params *codebuild.UpdateProjectInput, optFns ...func(*codebuild.Options)) (*codebuild.UpdateProjectOutput, error)
	BatchGetProjectsFunc func(ctx context.Context, params *codebuild.BatchGetProjectsInput, optFns ...func(*codebuild.Options)) (*codebuild.BatchGetProjectsOutput, error)
	StartBuildFunc       func(ctx context.Context, params *codebuild.StartBuildInput, optFns ...func(*codebuild.Options)) (*codebuild.StartBuildOutput, error)
	BatchGetBuildsFunc   func(ctx context.Context, params *codebuild.BatchGetBuildsInput, optFns ...func(*codebuild.Options)) (*codebuild.BatchGetBuildsOutput, error)
}

func (m *mockCodeBuildAPI) CreateProject(ctx context.Context, params *codebuild.CreateProjectInput, optFns ...func(*codebuild.Options)) (*codebuild.CreateProjectOutput, error) {
	if m.CreateProjectFunc != nil {
		return m.CreateProjectFunc(ctx, params, optFns...)
	}
	return &codebuild.CreateProjectOutput{
		Project: &cbtypes.Project{
			Name: params.Name,
			Arn:  aws.String("arn:aws:codebuild:us-west-1:123456789012:project/" + aws.ToString(params.Name)),
		},
	}, nil
}

func (m *mockCodeBuildAPI) UpdateProject(ctx context.Context, params *codebuild.UpdateProjectInput, optFns ...func(*codebuild.Options)) (*codebuild.UpdateProjectOutput, error) {
	if m.UpdateProjectFunc != nil {
		return m.UpdateProjectFunc(ctx, params, optFns...)
	}
	return &codebuild.UpdateProjectOutput{
		Project: &cbtypes.Project{Name: params.Name},
	}, nil
}

func (m *mockCodeBuildAPI) BatchGetProjects(ctx context.Context, params *codebuild.BatchGetProjectsInput, optFns ...func(*codebuild.Options)) (*codebuild.BatchGetProjectsOutput, error) {
	if m.BatchGetProjectsFunc != nil {
		return m.BatchGetProjectsFunc(ctx, params, optFns...)
	}
	return &codebuild.BatchGetProjectsOutput{}, nil
}

func (m *mockCodeBuildAPI) StartBuild(ctx context.Context, params *codebuild.StartBuildInput, optFns ...func(*codebuild.Options)) (*codebuild.StartBuildOutput, error) {
	if m.StartBuildFunc != nil {
		return m.StartBuildFunc(ctx, params, optFns...)
	}
	return &codebuild.StartBuildOutput{
		Build: &cbtypes.Build{
			Id:          aws.String(aws.ToString(params.ProjectName) + ":00000000-0000-0000-0000-000000000000"),
			BuildStatus: cbtypes.StatusTypeInProgress,
		},
	}, nil
}

func (m *mockCodeBuildAPI) BatchGetBuilds(ctx context.Context, params *codebuild.BatchGetBuildsInput, optFns ...func(*codebuild.Options)) (*codebuild.BatchGetBuildsOutput, error) {
	if m.BatchGetBuildsFunc != nil {
		return m.BatchGetBuildsFunc(ctx, params, optFns...)
	}
	return &codebuild.BatchGetBuildsOutput{
		Builds: []cbtypes.Build{
			{Id: aws.String(params.Ids[0]), BuildStatus: cbtypes.StatusTypeSucceeded},
		},
	}, nil
}

type mockECRAPI struct {
	DescribeRepositoriesFunc func(ctx context.Context, params *ecr.DescribeRepositoriesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error)
	CreateRepositoryFunc     func(ctx context.Context, params *ecr.CreateRepositoryInput, optFns ...func(*ecr.Options)) (*ecr.CreateRepositoryOutput, error)
}

func (m *mockECRAPI) DescribeRepositories(ctx context.Context, params *ecr.DescribeRepositoriesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error) {
	if m.DescribeRepositoriesFunc != nil {
		return m.DescribeRepositoriesFunc(ctx, params, optFns...)
	}
	return &ecr.DescribeRepositoriesOutput{
		Repositories: []ecrtypes.Repository{
			{
				RepositoryName: aws.String(params.RepositoryNames[0]),
				RepositoryUri:  aws.String("123456789012.dkr.ecr.us-west-1.amazonaws.com/" + params.RepositoryNames[0]),
			},
		},
	}, nil
}

func (m *mockECRAPI) CreateRepository(ctx context.Context, params *ecr.CreateRepositoryInput, optFns ...func(*ecr.Options)) (*ecr.CreateRepositoryOutput, error) {
	if m.CreateRepositoryFunc != nil {
		return m.CreateRepositoryFunc(ctx, params, optFns...)
	}
	return &ecr.CreateRepositoryOutput{
		Repository: &ecrtypes.Repository{
			RepositoryName: params.RepositoryName,
			RepositoryUri:  aws.String("123456789012.dkr.ecr.us-west-1.amazonaws.com/" + aws.ToString(params.RepositoryName)),
		},
	}, nil
}

type mockS3API struct {
	PutObjectFunc  func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucketFunc func(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

func (m *mockS3API) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3API) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if m.HeadBucketFunc != nil {
		return m.HeadBucketFunc(ctx, params, optFns...)
	}
	return &s3.HeadBucketOutput{}, nil
}

type mockEventBridgeAPI struct {
	PutRuleFunc       func(ctx context.Context, params *eventbridge.PutRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error)
	PutTargetsFunc    func(ctx context.Context, params *eventbridge.PutTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error)
	RemoveTargetsFunc func(ctx context.Context, params *eventbridge.RemoveTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error)
	DeleteRuleFunc    func(ctx context.Context, params *eventbridge.DeleteRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error)
}

func (m *mockEventBridgeAPI) PutRule(ctx context.Context, params *eventbridge.PutRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error) {
	if m.PutRuleFunc != nil {
		return m.PutRuleFunc(ctx, params, optFns...)
	}
	return &eventbridge.PutRuleOutput{
		RuleArn: aws.String("arn:aws:events:us-west-1:123456789012:rule/" + aws.ToString(params.Name)),
	}, nil
}

func (m *mockEventBridgeAPI) PutTargets(ctx context.Context, params *eventbridge.PutTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error) {
	if m.PutTargetsFunc != nil {
		return m.PutTargetsFunc(ctx, params, optFns...)
	}
	return &eventbridge.PutTargetsOutput{}, nil
}

func (m *mockEventBridgeAPI) RemoveTargets(ctx context.Context, params *eventbridge.RemoveTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error) {
	if m.RemoveTargetsFunc != nil {
		return m.RemoveTargetsFunc(ctx, params, optFns...)
	}
	return &eventbridge.RemoveTargetsOutput{}, nil
}

func (m *mockEventBridgeAPI) DeleteRule(ctx context.Context, params *eventbridge.DeleteRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error) {
	if m.DeleteRuleFunc != nil {
		return m.DeleteRuleFunc(ctx, params, optFns...)
	}
	return &eventbridge.DeleteRuleOutput{}, nil
}

type mockSNSAPI struct {
	GetTopicAttributesFunc func(ctx context.Context, params *sns.GetTopicAttributesInput, optFns ...func(*sns.Options)) (*sns.GetTopicAttributesOutput, error)
}

func (m *mockSNSAPI) GetTopicAttributes(ctx context.Context, params *sns.GetTopicAttributesInput, optFns ...func(*sns.Options)) (*sns.GetTopicAttributesOutput, error) {
	if m.GetTopicAttributesFunc != nil {
		return m.GetTopicAttributesFunc(ctx, params, optFns...)
	}
	return &sns.GetTopicAttributesOutput{
		Attributes: map[string]string{"TopicArn": aws.ToString(params.TopicArn)},
	}, nil
}

type mockCloudWatchLogsAPI struct {
	GetLogEventsFunc func(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

func (m *mockCloudWatchLogsAPI) GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error) {
	if m.GetLogEventsFunc != nil {
		return m.GetLogEventsFunc(ctx, params, optFns...)
	}
	return &cloudwatchlogs.GetLogEventsOutput{}, nil
}

type mockEC2API struct {
	DescribeSubnetsFunc        func(ctx context.Context, params *ec2.DescribeSubnetsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error)
	DescribeSecurityGroupsFunc func(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
}

func (m *mockEC2API) DescribeSubnets(ctx context.Context, params *ec2.DescribeSubnetsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error) {
	if m.DescribeSubnetsFunc != nil {
		return m.DescribeSubnetsFunc(ctx, params, optFns...)
	}
	subnets := make([]ec2types.Subnet, 0, len(params.SubnetIds))
	for _, id := range params.SubnetIds {
		subnets = append(subnets, ec2types.Subnet{
			SubnetId: aws.String(id),
			VpcId:    aws.String("vpc-12345"),
		})
	}
	return &ec2.DescribeSubnetsOutput{Subnets: subnets}, nil
}

func (m *mockEC2API) DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	if m.DescribeSecurityGroupsFunc != nil {
		return m.DescribeSecurityGroupsFunc(ctx, params, optFns...)
	}
	groups := make([]ec2types.SecurityGroup, 0, len(params.GroupIds))
	for _, id := range params.GroupIds {
		groups = append(groups, ec2types.SecurityGroup{
			GroupId: aws.String(id),
			VpcId:   aws.String("vpc-12345"),
		})
	}
	return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: groups}, nil
}

// newMockAWSClients returns AWSClients backed entirely by mocks with
// happy-path defaults. Tests override the Func fields they care about.
func newMockAWSClients() *AWSClients {
	cfg := aws.Config{Region: "us-west-1"}
	return &AWSClients{
		CodeBuild:      &mockCodeBuildAPI{},
		ECR:            &mockECRAPI{},
		S3:             &mockS3API{},
		EventBridge:    &mockEventBridgeAPI{},
		SNS:            &mockSNSAPI{},
		CloudWatchLogs: &mockCloudWatchLogsAPI{},
		EC2:            &mockEC2API{},
		Config:         cfg,
	}
}

var errAWS = fmt.Errorf("aws error")
