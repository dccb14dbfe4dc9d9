// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package strakerverify

import (
	"context"
	"fmt"
	"time"

	"github.com/tombee/strakerverify/internal/operation"
)

// Poll defaults for ConfirmAndWait.
const (
	DefaultPollAttempts = 6
	DefaultPollInterval = 10 * time.Second
)

// WaitWhilePendingPayment checks the project up to maxAttempts times,
// sleeping interval between checks, and returns the first response whose
// status is not PENDING_PAYMENT. There is no sleep after the last check.
func (c *Integration) WaitWhilePendingPayment(ctx context.Context, projectID string, maxAttempts int, interval time.Duration) (map[string]interface{}, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		project, err := c.GetProject(ctx, projectID)
		if err != nil {
			operation.RecordPollCheck("error")
			return nil, err
		}

		status := ProjectStatus(project)
		if status != StatusPendingPayment {
			operation.RecordPollCheck("done")
			c.logger.Debug("project left pending payment", "project_id", projectID, "status", status, "attempt", attempt)
			return project, nil
		}
		operation.RecordPollCheck("pending")
		c.logger.Debug("project pending payment", "project_id", projectID, "attempt", attempt, "max_attempts", maxAttempts)

		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, &Error{
				Message: fmt.Sprintf("Waiting for project %s was cancelled.", projectID),
				Type:    operation.ErrorTypeCancelled,
				Cause:   ctx.Err(),
			}
		}
	}

	return nil, &Error{
		Message: fmt.Sprintf("Project %s is still pending payment after %d checks.", projectID, maxAttempts),
		Type:    operation.ErrorTypeTimeout,
	}
}

// ConfirmAndWait confirms the project and waits for it to leave the
// pending-payment state.
func (c *Integration) ConfirmAndWait(ctx context.Context, projectID string, maxAttempts int, interval time.Duration) (map[string]interface{}, error) {
	if _, err := c.ConfirmProject(ctx, projectID); err != nil {
		return nil, err
	}
	return c.WaitWhilePendingPayment(ctx, projectID, maxAttempts, interval)
}
