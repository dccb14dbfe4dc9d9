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

package operation

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strakerverify_api_requests_total",
			Help: "Total number of Straker Verify API requests by operation and status code",
		},
		[]string{"operation", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strakerverify_api_request_duration_seconds",
			Help:    "Duration of Straker Verify API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	errorsByType = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strakerverify_api_errors_total",
			Help: "Total number of failed Straker Verify API requests by error type",
		},
		[]string{"operation", "type"},
	)

	pollChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strakerverify_poll_checks_total",
			Help: "Project status checks made while waiting for payment confirmation",
		},
		[]string{"outcome"},
	)
)

// WriteMetrics writes every metric in the default registry to path in the
// Prometheus text format, replacing the file atomically.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// RecordRequest records one API call. statusCode is 0 when no response was
// received.
func RecordRequest(operation string, statusCode int, duration time.Duration) {
	status := "none"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	requestsTotal.WithLabelValues(operation, status).Inc()
	requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordError counts a failed call by its classification.
func RecordError(operation string, errType ErrorType) {
	errorsByType.WithLabelValues(operation, string(errType)).Inc()
}

// RecordPollCheck counts a status check made by the payment poll. outcome is
// "pending", "done" or "error".
func RecordPollCheck(outcome string) {
	pollChecks.WithLabelValues(outcome).Inc()
}
