/*
 * This file is part of the rets-mate distribution (https://github.com/mlipscombe/rets-mate).
 * Copyright (c) 2024-2026 Mark Lipscombe.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, version 3.
 *
 * This program is distributed in the hope that it will be useful, but
 * WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
 * General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 */

package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	cmp "github.com/google/go-cmp/cmp"
	"github.com/mlipscombe/rets-mate/rets"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Watch describes one polled search.
type Watch struct {
	Resource string
	Class    string
	Query    string
	KeyField string
	Interval time.Duration
	Limit    int
	Flatten  bool
}

// StartSearchMonitor polls a search and publishes records whose fields
// changed since the previous pass. Numeric fields are exported as
// prometheus gauges, registered lazily as they first appear. The
// returned channel is signaled after the first successful pass.
func StartSearchMonitor(client *rets.Client, watch Watch, publish func(key string, fields map[string]interface{})) chan bool {
	cache := make(map[string]interface{})
	gauges := make(map[string]*prometheus.GaugeVec)
	ready := make(chan bool, 1)
	firstPass := true

	interval := watch.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	go func() {
		for {
			result, err := client.Search(rets.SearchOptions{
				Resource: watch.Resource,
				Class:    watch.Class,
				Query:    watch.Query,
				Limit:    watch.Limit,
				Count:    true,
				Flatten:  watch.Flatten,
			})
			if err != nil {
				log.Errorf("failed to poll %s/%s: %s", watch.Resource, watch.Class, err)
				time.Sleep(interval)
				continue
			}

			for i, object := range result.Objects {
				fields, ok := rets.AsMap(object)
				if !ok {
					continue
				}
				key := recordKey(fields, watch.KeyField, i)

				// Publish if changed
				if cmp.Equal(cache[key], fields) {
					continue
				}
				cache[key] = fields

				for name, value := range fields {
					number, numeric := numericValue(value)
					if !numeric {
						continue
					}
					metric := sanitizeName(name)
					if gauges[metric] == nil {
						gauge := prometheus.NewGaugeVec(
							prometheus.GaugeOpts{
								Namespace: "rets_mate",
								Subsystem: sanitizeName(watch.Resource),
								Name:      metric,
							},
							[]string{"class", "key"},
						)
						if err := prometheus.Register(gauge); err != nil {
							if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
								// Another watch on the same resource already
								// registered this metric; reuse its collector.
								gauge = are.ExistingCollector.(*prometheus.GaugeVec)
							} else {
								log.Errorf("failed to register gauge %s: %s", metric, err)
							}
						}
						gauges[metric] = gauge
					}
					gauges[metric].WithLabelValues(watch.Class, key).Set(number)
				}

				publish(key, fields)
			}

			// Signal ready after the first successful pass
			if firstPass {
				select {
				case ready <- true:
				default:
				}
				firstPass = false
			}

			time.Sleep(interval)
		}
	}()

	return ready
}

// recordKey identifies a record by its key field, falling back to its
// position in the result set when the field is missing.
func recordKey(fields map[string]interface{}, keyField string, position int) string {
	if keyField != "" {
		if value, ok := fields[keyField]; ok {
			if text, ok := value.(string); ok && text != "" {
				return text
			}
			return fmt.Sprintf("%v", value)
		}
	}
	return strconv.Itoa(position)
}

// numericValue parses a normalized field as a number. Normalized
// fields are strings; anything non-numeric is skipped for metrics.
func numericValue(value interface{}) (float64, bool) {
	text, ok := value.(string)
	if !ok {
		return 0, false
	}
	number, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, false
	}
	return number, true
}

// sanitizeName converts a CamelCase field name into a prometheus
// metric name (ListPrice -> list_price).
func sanitizeName(name string) string {
	var b strings.Builder
	var prev rune
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			if prev >= 'a' && prev <= 'z' || prev >= '0' && prev <= '9' {
				b.WriteByte('_')
			}
			b.WriteRune(r + 'a' - 'A')
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		prev = r
	}
	out := b.String()
	if out == "" {
		return "field"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}
