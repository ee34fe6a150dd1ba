// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package server

import "time"

// Option is a server option.
type Option interface {
	apply(*Server)
}

type compactDelayOption time.Duration

func (d compactDelayOption) apply(s *Server) {
	s.compactDelay = time.Duration(d)
}

// WithCompactDelay sets how long a compaction run stays in its running
// state before the disk size is recalculated. Tests use small values to
// exercise the compact_running flag without real waiting.
func WithCompactDelay(d time.Duration) Option {
	return compactDelayOption(d)
}
