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

// Package main implements the kiln CLI for building machine images from
// ordered provisioning components on AWS CodeBuild.
package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilnworks/kiln/builder"
	"github.com/kilnworks/kiln/builder/codebuild"
	"github.com/kilnworks/kiln/config"
	"github.com/kilnworks/kiln/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	quiet     bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "kiln",
	Short: "Kiln - machine image build orchestrator",
	Long: `Kiln assembles versioned machine images from ordered provisioning
components and runs the builds on AWS CodeBuild. Each build reports its
outcome back to the provisioning transaction that requested it.`,
	Version:           version,
	PersistentPreRunE: setupLogging,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "kiln.yaml", "Build target config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (plain, color, json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only show errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(signalCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level := logLevel
	format := logFormat
	if cfg, err := config.Load(cfgFile); err == nil {
		if level == "" {
			level = cfg.Log.Level
		}
		if format == "" {
			format = cfg.Log.Format
		}
		quiet = quiet || cfg.Log.Quiet
		verbose = verbose || cfg.Log.Verbose
	}

	logging.SetDefaultLogger(logging.NewLoggerWithOptions(level, format, quiet, verbose))
	return nil
}

// buildStack wires the configured AWS collaborators into a build service.
type buildStack struct {
	cfg      *config.Config
	clients  *codebuild.AWSClients
	executor *codebuild.Executor
	service  *builder.BuildService
}

// newBuildStack loads the build target config and constructs the service
// and its collaborators.
func newBuildStack(ctx context.Context) (*buildStack, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	clients, err := codebuild.NewAWSClients(ctx, codebuild.ClientConfig{
		Region:  cfg.Region,
		Profile: cfg.Profile,
	})
	if err != nil {
		return nil, err
	}

	recipe, err := cfg.Recipe()
	if err != nil {
		return nil, err
	}

	executor := codebuild.NewExecutor(clients, codebuild.ExecutorConfig{
		ServiceRole: cfg.ServiceRole,
		LogGroup:    "/kiln/" + cfg.ImageName,
	})
	stager := codebuild.NewS3Stager(clients, cfg.StagingBucket)
	registry := codebuild.NewECRRegistry(clients, cfg.Repository)

	service := builder.NewBuildService(cfg.ImageName, recipe, cfg.BuildOptions(), stager, registry, executor)

	return &buildStack{
		cfg:      cfg,
		clients:  clients,
		executor: executor,
		service:  service,
	}, nil
}
