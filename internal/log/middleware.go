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

package log

import (
	"context"
	"log/slog"
	"time"
)

// ItemMiddleware logs each input item a node operation processes.
type ItemMiddleware struct {
	logger *slog.Logger
}

// NewItemMiddleware creates item logging middleware around logger.
func NewItemMiddleware(logger *slog.Logger) *ItemMiddleware {
	if logger == nil {
		logger = Discard()
	}
	return &ItemMiddleware{logger: logger}
}

// Handler runs handler for the item at index. handler returns how many output
// items it produced. Success is logged at debug, failure at warn.
func (m *ItemMiddleware) Handler(ctx context.Context, index int, handler func() (int, error)) error {
	start := time.Now()
	m.logger.DebugContext(ctx, "item started", slog.Int(ItemIndexKey, index))

	produced, err := handler()

	attrs := []any{
		slog.Int(ItemIndexKey, index),
		slog.Int64(DurationKey, time.Since(start).Milliseconds()),
	}
	if err != nil {
		m.logger.WarnContext(ctx, "item failed", append(attrs, Error(err))...)
		return err
	}

	m.logger.DebugContext(ctx, "item processed", append(attrs, slog.Int("output_items", produced))...)
	return nil
}
