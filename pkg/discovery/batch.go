/*
 * Copyright 2026 WiCAN Tools Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package discovery

import (
	"context"
	"sync"
	"time"
)

// probeBatch probes every address with a bounded worker pool and
// returns a per-address confirmation slice aligned with addrs. Workers
// write disjoint indices, so no synchronization beyond the WaitGroup
// is needed. The full batch is always drained; callers apply their own
// deterministic tie-break over the result.
func (e *Engine) probeBatch(ctx context.Context, addrs []string, timeout time.Duration, concurrency int) []bool {
	confirmed := make([]bool, len(addrs))

	if len(addrs) == 0 {
		return confirmed
	}

	if concurrency > len(addrs) {
		concurrency = len(addrs)
	}

	workCh := make(chan int, concurrency)

	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for idx := range workCh {
				confirmed[idx] = e.prober.Check(ctx, addrs[idx], timeout)
			}
		}()
	}

	for i := range addrs {
		select {
		case <-ctx.Done():
			// Stop feeding; in-flight probes fail against the
			// cancelled context.
			close(workCh)
			wg.Wait()

			return confirmed
		case workCh <- i:
		}
	}

	close(workCh)
	wg.Wait()

	return confirmed
}
