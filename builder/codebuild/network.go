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
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/kilnworks/kiln/builder"
	"github.com/kilnworks/kiln/pkg/errors"
)

// validateNetwork checks that every subnet and security group in the
// placement exists and belongs to the configured VPC before a project is
// created with them. Misconfigured placements fail as ConfigError rather
// than as a late project-creation failure.
func (e *Executor) validateNetwork(ctx context.Context, network builder.NetworkPlacement) error {
	if len(network.Subnets) == 0 {
		return builder.NewConfigError("network placement requires at least one subnet")
	}
	if len(network.SecurityGroups) == 0 {
		return builder.NewConfigError("network placement requires at least one security group")
	}

	subnets, err := e.clients.EC2.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{
		SubnetIds: network.Subnets,
	})
	if err != nil {
		return errors.Wrap("describe subnets", "", err)
	}
	found := make(map[string]string, len(subnets.Subnets))
	for _, s := range subnets.Subnets {
		found[aws.ToString(s.SubnetId)] = aws.ToString(s.VpcId)
	}
	for _, id := range network.Subnets {
		vpc, ok := found[id]
		if !ok {
			return builder.NewConfigError("subnet %s does not exist", id)
		}
		if network.VpcID != "" && vpc != network.VpcID {
			return builder.NewConfigError("subnet %s belongs to %s, not %s", id, vpc, network.VpcID)
		}
	}

	groups, err := e.clients.EC2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		GroupIds: network.SecurityGroups,
	})
	if err != nil {
		return errors.Wrap("describe security groups", "", err)
	}
	foundGroups := make(map[string]string, len(groups.SecurityGroups))
	for _, g := range groups.SecurityGroups {
		foundGroups[aws.ToString(g.GroupId)] = aws.ToString(g.VpcId)
	}
	for _, id := range network.SecurityGroups {
		vpc, ok := foundGroups[id]
		if !ok {
			return builder.NewConfigError("security group %s does not exist", id)
		}
		if network.VpcID != "" && vpc != network.VpcID {
			return builder.NewConfigError("security group %s belongs to %s, not %s", id, vpc, network.VpcID)
		}
	}

	return nil
}
