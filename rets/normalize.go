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
	"strings"

	"github.com/antchfx/xmlquery"
)

// Normalized values are plain Go values: string scalars,
// map[string]interface{} elements and []interface{} sequences. An
// element's attributes live under "$" as map[string]string; mixed
// content text lives under "_".

// Simplify converts a parsed XML tree into normalized values. An
// element with no attributes and no child elements collapses to its
// trimmed text; repeated sibling tags collapse to a sequence in
// document order while a singleton stays bare. Simplify is a fixed
// point on already-normalized values, so re-normalizing is a no-op.
func Simplify(v interface{}) interface{} {
	switch value := v.(type) {
	case *xmlquery.Node:
		return simplifyNode(value)
	case map[string]interface{}:
		simplified := make(map[string]interface{}, len(value))
		for key, item := range value {
			simplified[key] = Simplify(item)
		}
		return simplified
	case []interface{}:
		simplified := make([]interface{}, len(value))
		for i, item := range value {
			simplified[i] = Simplify(item)
		}
		return simplified
	default:
		return v
	}
}

func simplifyNode(n *xmlquery.Node) interface{} {
	if n == nil {
		return nil
	}

	attrs := make(map[string]string, len(n.Attr))
	for _, attr := range n.Attr {
		attrs[attr.Name.Local] = attr.Value
	}

	var text strings.Builder
	children := make(map[string]interface{})
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.ElementNode:
			value := simplifyNode(child)
			if existing, ok := children[child.Data]; ok {
				if seq, ok := existing.([]interface{}); ok {
					children[child.Data] = append(seq, value)
				} else {
					children[child.Data] = []interface{}{existing, value}
				}
			} else {
				children[child.Data] = value
			}
		case xmlquery.TextNode, xmlquery.CharDataNode:
			text.WriteString(child.Data)
		}
	}

	body := strings.TrimSpace(text.String())
	if len(attrs) == 0 && len(children) == 0 {
		return body
	}
	if len(attrs) > 0 {
		children["$"] = attrs
	}
	if body != "" {
		children["_"] = body
	}
	return children
}

// AsSlice coerces a normalized value to a sequence: nil stays nil, a
// sequence is returned as-is, anything else becomes a one-element
// sequence. Consumers that need array shape use this instead of
// probing for cardinality.
func AsSlice(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	if seq, ok := v.([]interface{}); ok {
		return seq
	}
	return []interface{}{v}
}

// AsMap reports whether a normalized value is an element mapping.
func AsMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

// Attrs returns the attribute bag of a normalized element, or nil when
// the value is a scalar or carries no attributes.
func Attrs(v interface{}) map[string]string {
	if m, ok := AsMap(v); ok {
		if attrs, ok := m["$"].(map[string]string); ok {
			return attrs
		}
	}
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
