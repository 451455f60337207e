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

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsOrchestrator holds Prometheus metrics for the generation
// pipeline, grounded on the teacher's ingestion metricsIngestion: one
// counter per phase outcome plus a duration histogram per phase.
type metricsOrchestrator struct {
	once sync.Once

	filesGenerated prometheus.Counter
	filesSkipped   prometheus.Counter
	filesDegraded  prometheus.Counter

	dirsGenerated prometheus.Counter
	dirsSkipped   prometheus.Counter

	chunksIndexed prometheus.Counter
	parseErrors   prometheus.Counter

	discoverDuration   prometheus.Histogram
	analyzeDuration    prometheus.Histogram
	filesDuration      prometheus.Histogram
	directoriesDuration prometheus.Histogram
	synthesizeDuration prometheus.Histogram
	indexDuration      prometheus.Histogram
	runDuration        prometheus.Histogram
}

var orchMetrics metricsOrchestrator

func (m *metricsOrchestrator) init() {
	m.once.Do(func() {
		m.filesGenerated = prometheus.NewCounter(prometheus.CounterOpts{Name: "oya_files_generated_total", Help: "File pages (re)generated by the Files phase"})
		m.filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "oya_files_skipped_total", Help: "File pages skipped because their signature was unchanged"})
		m.filesDegraded = prometheus.NewCounter(prometheus.CounterOpts{Name: "oya_files_degraded_total", Help: "File pages written as a degraded stub after an LLM failure"})

		m.dirsGenerated = prometheus.NewCounter(prometheus.CounterOpts{Name: "oya_dirs_generated_total", Help: "Directory pages (re)generated by the Directories phase"})
		m.dirsSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "oya_dirs_skipped_total", Help: "Directory pages skipped because their signature was unchanged"})

		m.chunksIndexed = prometheus.NewCounter(prometheus.CounterOpts{Name: "oya_chunks_indexed_total", Help: "Wiki chunks written to the hybrid search index"})
		m.parseErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "oya_parse_errors_total", Help: "Files that failed to parse during the Analyze phase"})

		buckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
		m.discoverDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "oya_phase_discover_seconds", Help: "Discover phase duration", Buckets: buckets})
		m.analyzeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "oya_phase_analyze_seconds", Help: "Analyze phase duration", Buckets: buckets})
		m.filesDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "oya_phase_files_seconds", Help: "Files phase duration", Buckets: buckets})
		m.directoriesDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "oya_phase_directories_seconds", Help: "Directories phase duration", Buckets: buckets})
		m.synthesizeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "oya_phase_synthesize_seconds", Help: "Synthesize phase duration", Buckets: buckets})
		m.indexDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "oya_phase_index_seconds", Help: "Index phase duration", Buckets: buckets})
		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "oya_run_seconds", Help: "Total generation run duration", Buckets: buckets})

		prometheus.MustRegister(
			m.filesGenerated, m.filesSkipped, m.filesDegraded,
			m.dirsGenerated, m.dirsSkipped,
			m.chunksIndexed, m.parseErrors,
			m.discoverDuration, m.analyzeDuration, m.filesDuration,
			m.directoriesDuration, m.synthesizeDuration, m.indexDuration,
			m.runDuration,
		)
	})
}

// observePhase records dur against the named phase histogram. Called by
// Orchestrator.Run around each phase so oya_phase_*_seconds reflects
// real generation runs without every phase function taking a metrics
// dependency of its own.
func observePhase(phase string, dur time.Duration) {
	orchMetrics.init()
	seconds := dur.Seconds()
	switch phase {
	case "discover":
		orchMetrics.discoverDuration.Observe(seconds)
	case "analyze":
		orchMetrics.analyzeDuration.Observe(seconds)
	case "files":
		orchMetrics.filesDuration.Observe(seconds)
	case "directories":
		orchMetrics.directoriesDuration.Observe(seconds)
	case "synthesize":
		orchMetrics.synthesizeDuration.Observe(seconds)
	case "index":
		orchMetrics.indexDuration.Observe(seconds)
	}
}

// recordFileDegraded marks one file page as having fallen back to a
// stub after exhausting its LLM retries, mirroring the teacher's direct
// recordEmbedRetry() call from deep inside the pipeline rather than
// threading a metrics dependency through every function signature.
func recordFileDegraded() {
	orchMetrics.init()
	orchMetrics.filesDegraded.Inc()
}

// recordRunResult folds a completed run's counts into the phase
// counters; called once at the end of Orchestrator.Run.
func recordRunResult(r RunResult) {
	orchMetrics.init()
	orchMetrics.filesGenerated.Add(float64(r.FilesGenerated))
	orchMetrics.filesSkipped.Add(float64(r.FilesSkipped))
	orchMetrics.dirsGenerated.Add(float64(r.DirsGenerated))
	orchMetrics.dirsSkipped.Add(float64(r.DirsSkipped))
	orchMetrics.chunksIndexed.Add(float64(r.ChunksIndexed))
	orchMetrics.parseErrors.Add(float64(r.ParseErrors))
	orchMetrics.runDuration.Observe(r.Duration.Seconds())
}
