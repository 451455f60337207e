// Copyright 2025 KrakLabs
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
//
// SPDX-License-Identifier: Apache-2.0

package orchestrator

// ProgressFunc reports done/total items completed within a phase, e.g.
// to drive a CLI progress bar. A nil ProgressFunc is valid and a no-op.
type ProgressFunc func(done, total int)

func (f ProgressFunc) report(done, total int) {
	if f != nil {
		f(done, total)
	}
}
