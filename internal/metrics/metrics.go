/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics exports resolver statistics in the Prometheus format.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/rancher-sandbox/pkgresolver/internal/resolver"
)

// Registry holds the process-wide search metrics.
var Registry = prometheus.NewRegistry()

var (
	searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkgresolver_searches_total",
			Help: "Number of searches by outcome status.",
		},
		[]string{"status"},
	)
	solutionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pkgresolver_solutions_total",
			Help: "Total number of solutions returned.",
		},
	)
	searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pkgresolver_search_duration_seconds",
			Help:    "Time taken by a search.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	Registry.MustRegister(
		searchesTotal,
		solutionsTotal,
		searchDuration,
	)
}

// ObserveSearch records a finished search.
func ObserveSearch(status string, solutions int, d time.Duration) {
	searchesTotal.WithLabelValues(status).Inc()
	solutionsTotal.Add(float64(solutions))
	searchDuration.Observe(d.Seconds())
}

// CountsSource is anything exposing resolver counts, typically a
// *resolver.Resolver.
type CountsSource interface {
	Counts() resolver.Counts
}

// ResolverCollector reports the queue sizes of a running resolver.
type ResolverCollector struct {
	src        CountsSource
	open       *prometheus.Desc
	closed     *prometheus.Desc
	deferred   *prometheus.Desc
	conflicts  *prometheus.Desc
	promotions *prometheus.Desc
	finished   *prometheus.Desc
}

func NewResolverCollector(src CountsSource) *ResolverCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("pkgresolver_resolver_"+name, help, nil, nil)
	}
	return &ResolverCollector{
		src:        src,
		open:       desc("open_steps", "Steps waiting to be processed."),
		closed:     desc("closed_steps", "Steps already processed."),
		deferred:   desc("deferred_steps", "Steps set aside by user constraints."),
		conflicts:  desc("conflicts", "Known promotions to the conflict tier."),
		promotions: desc("promotions", "Known promotions of any tier."),
		finished:   desc("finished", "1 once the search space is exhausted."),
	}
}

func (c *ResolverCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
	ch <- c.closed
	ch <- c.deferred
	ch <- c.conflicts
	ch <- c.promotions
	ch <- c.finished
}

func (c *ResolverCollector) Collect(ch chan<- prometheus.Metric) {
	counts := c.src.Counts()
	finished := 0.0
	if counts.Finished {
		finished = 1
	}
	for _, m := range []struct {
		desc  *prometheus.Desc
		value float64
	}{
		{c.open, float64(counts.Open)},
		{c.closed, float64(counts.Closed)},
		{c.deferred, float64(counts.Deferred)},
		{c.conflicts, float64(counts.Conflicts)},
		{c.promotions, float64(counts.Promotions)},
		{c.finished, finished},
	} {
		ch <- prometheus.MustNewConstMetric(m.desc, prometheus.GaugeValue, m.value)
	}
}

// Write dumps everything g gathers in the text exposition format.
func Write(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
