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

// Package signal implements the build completion signal protocol: it turns
// a build invocation's outcome and log tail into the structured callback
// payload a waiting provisioning transaction consumes.
//
// Exactly one signal is produced per build invocation, on both success and
// failure paths. Delivery is a single HTTP PUT with an empty Content-Type
// header; it is never retried here. A scheduled rebuild has no caller
// waiting on the signal, so delivery is skipped when the endpoint is the
// literal placeholder "unspecified".
package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/kilnworks/kiln/logging"
)

// Signal statuses understood by the provisioning callback protocol.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// UnspecifiedEndpoint is the literal placeholder used when a build runs
// outside a provisioning transaction (e.g. a scheduled rebuild). Delivery
// to it is skipped.
const UnspecifiedEndpoint = "unspecified"

// MaxReasonBytes caps the log excerpt embedded in a signal, respecting
// downstream payload size limits.
const MaxReasonBytes = 400

// CorrelationIDs are passed through from the triggering request so the
// provisioning layer can match the signal to its transaction.
type CorrelationIDs struct {
	StackID           string
	RequestID         string
	LogicalResourceID string
}

// WithPlaceholders substitutes the literal placeholder for any identifier
// left empty, which happens when a build is triggered outside a
// provisioning transaction.
func (c CorrelationIDs) WithPlaceholders() CorrelationIDs {
	if c.StackID == "" {
		c.StackID = UnspecifiedEndpoint
	}
	if c.RequestID == "" {
		c.RequestID = UnspecifiedEndpoint
	}
	if c.LogicalResourceID == "" {
		c.LogicalResourceID = UnspecifiedEndpoint
	}
	return c
}

// PayloadData carries the per-invocation response data.
type PayloadData struct {
	// Random is a fresh idempotency token distinguishing every invocation,
	// even when nothing else in the payload changed.
	Random string `json:"Random"`
}

// Payload is the provisioning callback body. The field names and shape are
// a bit-exact external contract.
type Payload struct {
	StackID            string      `json:"StackId"`
	RequestID          string      `json:"RequestId"`
	LogicalResourceID  string      `json:"LogicalResourceId"`
	PhysicalResourceID string      `json:"PhysicalResourceId"`
	Status             string      `json:"Status"`
	Reason             string      `json:"Reason"`
	Data               PayloadData `json:"Data"`
}

// New assembles a completion signal payload. succeeded reflects the build
// phase's own exit status: any non-zero exit there forces FAILED regardless
// of later cleanup commands. buildLog may be arbitrary executor output; it
// is sanitized and truncated before embedding. New never fails: callers on
// the failure path always get a deliverable payload.
func New(ids CorrelationIDs, physicalResourceID string, succeeded bool, buildLog string) Payload {
	status := StatusFailed
	if succeeded {
		status = StatusSuccess
	}
	ids = ids.WithPlaceholders()

	return Payload{
		StackID:            ids.StackID,
		RequestID:          ids.RequestID,
		LogicalResourceID:  ids.LogicalResourceID,
		PhysicalResourceID: physicalResourceID,
		Status:             status,
		Reason:             SanitizeReason(buildLog),
		Data:               PayloadData{Random: uuid.NewString()},
	}
}

// SanitizeReason strips non-printable characters from a log excerpt and
// keeps only its last MaxReasonBytes bytes.
func SanitizeReason(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteByte(' ')
			continue
		}
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}

	out := b.String()
	if len(out) > MaxReasonBytes {
		out = out[len(out)-MaxReasonBytes:]
		// Drop a partial leading rune left by the byte-level cut.
		out = strings.ToValidUTF8(out, "")
	}
	return out
}

// Sender delivers completion signals over HTTP.
type Sender struct {
	client *http.Client
}

// NewSender creates a Sender. A nil client selects a default with a
// 30 second timeout.
func NewSender(client *http.Client) *Sender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Sender{client: client}
}

// Send delivers the payload to the endpoint via HTTP PUT with an empty
// Content-Type header. Delivery is skipped, without error, when the
// endpoint is empty or equals UnspecifiedEndpoint. Delivery failures are
// returned for logging only; this package never retries.
func (s *Sender) Send(ctx context.Context, endpoint string, p Payload) error {
	if endpoint == "" || endpoint == UnspecifiedEndpoint {
		logging.DebugContext(ctx, "No callback endpoint bound; skipping signal delivery")
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode signal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build signal request: %w", err)
	}
	// The callback URL is pre-signed for an unset content type; an empty
	// header value keeps the signature valid.
	req.Header.Set("Content-Type", "")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver signal: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("signal endpoint returned status %d", resp.StatusCode)
	}

	logging.DebugContext(ctx, "Delivered %s signal for %s", p.Status, p.PhysicalResourceID)
	return nil
}
