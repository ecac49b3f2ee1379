// Copyright 2025 Poiesic Systems
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


package generation

import (
	"context"
	"strings"
	"time"

	"github.com/poiesic/studyguide/ai"
	"github.com/poiesic/studyguide/core"
)

// backoff returns the wait before the attempt after attempt n (1-based).
func (d *Driver) backoff(n int) time.Duration {
	return d.retryDelay << (n - 1)
}

// attemptChunk calls the generator for chunk up to maxAttempts times, waiting
// an exponentially growing delay between attempts. A blank answer counts as a
// failed attempt. The error of the last attempt is returned when all fail.
func (d *Driver) attemptChunk(ctx context.Context, chunk core.Chunk, subject string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := d.callGenerator(ctx, chunk, subject)
		if err == nil {
			if attempt > 1 {
				d.logger.Debug("chunk succeeded after retry", "chunk", chunk.Index, "attempt", attempt)
			}
			return text, nil
		}
		lastErr = err

		if attempt == d.maxAttempts {
			break
		}

		delay := d.backoff(attempt)
		d.logger.Debug("chunk attempt failed, will retry",
			"chunk", chunk.Index,
			"attempt", attempt,
			"maxAttempts", d.maxAttempts,
			"delay", delay,
			"err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	return "", lastErr
}

func (d *Driver) callGenerator(ctx context.Context, chunk core.Chunk, subject string) (string, error) {
	callCtx, cancel := d.callContext(ctx)
	defer cancel()

	text, err := d.generator.GenerateGuide(callCtx, chunk.Text, subject)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}

func (d *Driver) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.callTimeout > 0 {
		return context.WithTimeout(ctx, d.callTimeout)
	}
	return context.WithCancel(ctx)
}
