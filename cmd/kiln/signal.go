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
	"os"

	"github.com/spf13/cobra"

	"github.com/kilnworks/kiln/logging"
	"github.com/kilnworks/kiln/signal"
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Capture and deliver this build's completion signal",
	Long: `Capture the completion signal from the current build job's
environment and log file and deliver it to the bound callback endpoint.

Intended to run inside a build job's post-build phase. Delivery is skipped
when no callback endpoint is bound.`,
	RunE: runSignal,
}

func runSignal(cmd *cobra.Command, args []string) error {
	env := signal.BuildEnv{
		Getenv:   os.Getenv,
		ReadFile: os.ReadFile,
	}
	endpoint, payload := env.Capture()

	logging.Info("Delivering %s signal for %s", payload.Status, payload.PhysicalResourceID)
	return signal.NewSender(nil).Send(cmd.Context(), endpoint, payload)
}
