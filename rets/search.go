/*
 * This file is part of the rets-mate distribution (https://github.com/mlipscombe/rets-mate).
 * Copyright (c) 2024 Mark Lipscombe.
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

package rets

import (
	"sort"
	"strconv"
	"strings"
)

// QueryResult is the uniform shape of a search reply. Count is nil
// when the server advertised no total; a zero total and an absent
// total are different answers.
type QueryResult struct {
	Count   *int
	Objects []interface{}
}

// ParseQuery parses a search reply and collects the result rows for
// resourceType. Replies without an REData payload yield a zero-count
// empty result, not an error: searching content that is not a search
// reply is a normal outcome. When resourceType appears nowhere in a
// structured payload, the whole REData subtree comes back as the
// single object so an unanticipated shape is inspectable rather than
// lost; an empty or text-only REData yields no rows. With flatten
// set, each object collapses to a single-level field map; field names
// must be unique across the source tree for that to be lossless.
func ParseQuery(xmlText, resourceType string, flatten bool) (*QueryResult, error) {
	envelope, err := ParseEnvelope(xmlText)
	if err != nil {
		return nil, err
	}

	body, _ := AsMap(envelope)
	payload, present := body["REData"]
	if !present {
		zero := 0
		return &QueryResult{Count: &zero, Objects: []interface{}{}}, nil
	}

	result := &QueryResult{Count: recordCount(body)}

	var objects []interface{}
	if hit, found := findResource(payload, resourceType); found {
		objects = AsSlice(hit)
	} else if _, scalar := payload.(string); scalar {
		objects = []interface{}{}
	} else {
		objects = []interface{}{payload}
	}

	if flatten {
		flattened := make([]interface{}, 0, len(objects))
		for _, object := range objects {
			flattened = append(flattened, flattenObject(object))
		}
		objects = flattened
	}

	result.Objects = objects
	return result, nil
}

// recordCount reads the total from a COUNT element's Records
// attribute. Anything non-numeric counts as no total.
func recordCount(body map[string]interface{}) *int {
	attrs := Attrs(body["COUNT"])
	if attrs == nil {
		return nil
	}
	records, err := strconv.Atoi(strings.TrimSpace(attrs["Records"]))
	if err != nil {
		return nil
	}
	return &records
}

// findResource walks the normalized payload for the first entry keyed
// resourceType. A direct child wins over a deeper match; map keys are
// visited in sorted order so the walk is deterministic.
func findResource(v interface{}, resourceType string) (interface{}, bool) {
	if m, ok := AsMap(v); ok {
		if hit, present := m[resourceType]; present {
			return hit, true
		}
		for _, key := range sortedKeys(m) {
			if key == "$" || key == "_" {
				continue
			}
			if hit, found := findResource(m[key], resourceType); found {
				return hit, true
			}
		}
		return nil, false
	}
	if seq, ok := v.([]interface{}); ok {
		for _, item := range seq {
			if hit, found := findResource(item, resourceType); found {
				return hit, true
			}
		}
	}
	return nil, false
}

// flattenObject collapses a nested object into a single-level map,
// discarding the intermediate grouping keys. Attribute bags merge as
// plain fields.
func flattenObject(v interface{}) interface{} {
	m, ok := AsMap(v)
	if !ok {
		return v
	}
	flat := make(map[string]interface{})
	mergeFields(m, flat)
	return flat
}

func mergeFields(m map[string]interface{}, into map[string]interface{}) {
	for _, key := range sortedKeys(m) {
		if key == "$" {
			attrs, _ := m[key].(map[string]string)
			for _, name := range sortedAttrNames(attrs) {
				into[name] = attrs[name]
			}
			continue
		}
		switch value := m[key].(type) {
		case map[string]interface{}:
			mergeFields(value, into)
		case []interface{}:
			for _, item := range value {
				if child, ok := AsMap(item); ok {
					mergeFields(child, into)
				} else {
					into[key] = item
				}
			}
		default:
			into[key] = value
		}
	}
}

func sortedAttrNames(attrs map[string]string) []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
