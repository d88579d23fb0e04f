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
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"

	"github.com/kilnworks/kiln/builder"
	"github.com/kilnworks/kiln/logging"
	"github.com/kilnworks/kiln/pkg/errors"
)

// ECRRegistry resolves the ECR repository built images push to, creating
// it on first use.
type ECRRegistry struct {
	clients  *AWSClients
	repoName string
}

var _ builder.ArtifactRegistry = (*ECRRegistry)(nil)

// NewECRRegistry creates a registry resolver for the named repository.
func NewECRRegistry(clients *AWSClients, repoName string) *ECRRegistry {
	return &ECRRegistry{clients: clients, repoName: repoName}
}

// Repository returns the repository's push URI and the login commands the
// build job runs before pushing. A missing repository is created.
func (r *ECRRegistry) Repository(ctx context.Context) (*builder.Repository, error) {
	if r.repoName == "" {
		return nil, builder.NewConfigError("repository name is not configured")
	}

	uri, err := r.resolveURI(ctx)
	if err != nil {
		return nil, err
	}

	host := uri
	if i := strings.Index(uri, "/"); i > 0 {
		host = uri[:i]
	}
	login := fmt.Sprintf(
		"aws ecr get-login-password --region %s | docker login --username AWS --password-stdin %s",
		r.clients.GetRegion(), host)

	return &builder.Repository{
		Name:          r.repoName,
		URI:           uri,
		LoginCommands: []string{login},
	}, nil
}

func (r *ECRRegistry) resolveURI(ctx context.Context) (string, error) {
	out, err := r.clients.ECR.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{r.repoName},
	})
	if err == nil && len(out.Repositories) > 0 {
		return aws.ToString(out.Repositories[0].RepositoryUri), nil
	}

	var notFound *ecrtypes.RepositoryNotFoundException
	if err != nil && !stderrors.As(err, &notFound) {
		return "", errors.Wrap("describe repository", r.repoName, err)
	}

	created, err := r.clients.ECR.CreateRepository(ctx, &ecr.CreateRepositoryInput{
		RepositoryName: aws.String(r.repoName),
	})
	if err != nil {
		return "", errors.Wrap("create repository", r.repoName, err)
	}
	logging.InfoContext(ctx, "Created repository %s", r.repoName)
	return aws.ToString(created.Repository.RepositoryUri), nil
}
