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

package cgrag

// Confidence is the three-tier level spec.md's Q&A contract returns.
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// Distance thresholds per spec.md 4.8: confidence comes from the
// initial search result distance distribution, never from the LLM.
const (
	MinStrongMatches        = 2
	HighConfidenceThreshold = 0.3
	MediumConfidenceThreshold = 0.6
)

// ConfidenceWeights is unused by the distance-bucket scoring below but
// kept as the shape bbiangul-go-reason's ComputeConfidence exposes, in
// case a future caller wants to blend in additional signals.
type ConfidenceWeights struct {
	StrongMatchWeight float64
	AnyMatchWeight    float64
}

// DeriveConfidence computes a confidence level from the initial
// search's result distances (lower distance = closer match): high if
// at least MinStrongMatches results fall below HighConfidenceThreshold,
// medium if any result falls below MediumConfidenceThreshold, else low.
func DeriveConfidence(distances []float64) Confidence {
	strong := 0
	anyMedium := false
	for _, d := range distances {
		if d < HighConfidenceThreshold {
			strong++
		}
		if d < MediumConfidenceThreshold {
			anyMedium = true
		}
	}
	switch {
	case strong >= MinStrongMatches:
		return High
	case anyMedium:
		return Medium
	default:
		return Low
	}
}
