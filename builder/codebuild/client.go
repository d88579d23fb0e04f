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

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/kilnworks/kiln/pkg/errors"
)

// ClientConfig holds the AWS connection settings for the executor backend.
type ClientConfig struct {
	Region  string
	Profile string
}

// AWSClients bundles the AWS service clients the backend uses. Fields are
// interfaces so tests can substitute mocks.
type AWSClients struct {
	CodeBuild      CodeBuildAPI
	ECR            ECRAPI
	S3             S3API
	EventBridge    EventBridgeAPI
	SNS            SNSAPI
	CloudWatchLogs CloudWatchLogsAPI
	EC2            EC2API
	Config         aws.Config
}

// loadAWSConfig is a variable so tests can substitute configuration loading.
var loadAWSConfig = awsconfig.LoadDefaultConfig

// NewAWSClients loads AWS configuration and constructs the service clients.
func NewAWSClients(ctx context.Context, cfg ClientConfig) (*AWSClients, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		optFns = append(optFns, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := loadAWSConfig(ctx, optFns...)
	if err != nil {
		return nil, errors.Wrap("load AWS configuration", "", err)
	}

	return &AWSClients{
		CodeBuild:      codebuild.NewFromConfig(awsCfg),
		ECR:            ecr.NewFromConfig(awsCfg),
		S3:             s3.NewFromConfig(awsCfg),
		EventBridge:    eventbridge.NewFromConfig(awsCfg),
		SNS:            sns.NewFromConfig(awsCfg),
		CloudWatchLogs: cloudwatchlogs.NewFromConfig(awsCfg),
		EC2:            ec2.NewFromConfig(awsCfg),
		Config:         awsCfg,
	}, nil
}

// GetRegion returns the region the clients operate in.
func (c *AWSClients) GetRegion() string {
	return c.Config.Region
}
