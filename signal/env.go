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

package signal

import (
	"fmt"
	"strings"
)

// Environment variable names injected into every build job. The post-build
// phase reads them to assemble and deliver the completion signal.
const (
	EnvCallbackURL        = "KILN_CALLBACK_URL"
	EnvStackID            = "KILN_STACK_ID"
	EnvRequestID          = "KILN_REQUEST_ID"
	EnvLogicalResourceID  = "KILN_LOGICAL_RESOURCE_ID"
	EnvPhysicalResourceID = "KILN_PHYSICAL_RESOURCE_ID"
	EnvLogFile            = "KILN_LOG_FILE"

	// envBuildSucceeding is set by the executor: "1" iff every build phase
	// command so far exited zero.
	envBuildSucceeding = "CODEBUILD_BUILD_SUCCEEDING"
)

// DefaultLogFile is where the build phase tees its output so the post-build
// phase can embed a log excerpt in the signal.
const DefaultLogFile = "/tmp/kiln-build.log"

// BuildEnv captures a completion signal from inside a running build job.
// The function fields exist so tests can substitute a fake environment;
// zero-value fields are invalid.
type BuildEnv struct {
	Getenv   func(string) string
	ReadFile func(string) ([]byte, error)
}

// Capture reads the job environment and log file and assembles the signal
// payload plus the endpoint it should go to. Capture never fails: an
// unreadable log still yields a deliverable payload whose reason notes the
// problem, so the signal is never lost.
func (e BuildEnv) Capture() (endpoint string, payload Payload) {
	succeeded := e.Getenv(envBuildSucceeding) == "1"

	logFile := e.Getenv(EnvLogFile)
	if logFile == "" {
		logFile = DefaultLogFile
	}

	buildLog := ""
	if data, err := e.ReadFile(logFile); err != nil {
		buildLog = fmt.Sprintf("build log unavailable: %v", err)
	} else {
		buildLog = string(data)
	}

	ids := CorrelationIDs{
		StackID:           e.Getenv(EnvStackID),
		RequestID:         e.Getenv(EnvRequestID),
		LogicalResourceID: e.Getenv(EnvLogicalResourceID),
	}

	endpoint = e.Getenv(EnvCallbackURL)
	if endpoint == "" {
		endpoint = UnspecifiedEndpoint
	}

	return endpoint, New(ids, e.Getenv(EnvPhysicalResourceID), succeeded, buildLog)
}

// PostBuildCommands returns the shell commands the post-build phase runs to
// package and deliver the job's own completion signal. The block is
// self-contained: it derives the status from the executor's build-phase
// exit flag, sanitizes and caps the log tail, and skips delivery when the
// callback URL is the placeholder. Internal failures are guarded so a
// signaling hiccup never fails the phase.
func PostBuildCommands() []string {
	block := strings.Join([]string{
		`status=` + StatusFailed,
		fmt.Sprintf(`if [ "$%s" = "1" ]; then status=%s; fi`, envBuildSucceeding, StatusSuccess),
		fmt.Sprintf(`reason=$(tail -c %d "$%s" 2>/dev/null | tr -cd '[:print:]' || true)`, MaxReasonBytes, EnvLogFile),
		`random=$(cat /proc/sys/kernel/random/uuid)`,
		fmt.Sprintf(`jq -n --arg stackId "$%s" --arg requestId "$%s" --arg logicalId "$%s" --arg physicalId "$%s" --arg status "$status" --arg reason "$reason" --arg random "$random" `+
			`'{StackId: $stackId, RequestId: $requestId, LogicalResourceId: $logicalId, PhysicalResourceId: $physicalId, Status: $status, Reason: $reason, Data: {Random: $random}}' > /tmp/kiln-signal.json`,
			EnvStackID, EnvRequestID, EnvLogicalResourceID, EnvPhysicalResourceID),
		fmt.Sprintf(`if [ "$%s" != "%s" ]; then curl -sS -X PUT -H 'Content-Type:' --data-binary @/tmp/kiln-signal.json "$%s" || echo "kiln: signal delivery failed"; fi`,
			EnvCallbackURL, UnspecifiedEndpoint, EnvCallbackURL),
	}, "\n")

	return []string{block}
}
