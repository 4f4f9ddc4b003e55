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

// ParseMetadata parses a metadata reply and returns its METADATA-CLASS
// entries. The result is always a sequence, even for a single class;
// metadata callers iterate, so the singleton collapse of Simplify is
// undone here.
func ParseMetadata(xmlText string) ([]interface{}, error) {
	envelope, err := ParseEnvelope(xmlText)
	if err != nil {
		return nil, err
	}
	m, ok := AsMap(envelope)
	if !ok {
		return nil, ParseError{Msg: "Unable to find METADATA"}
	}
	metadata, present := m["METADATA"]
	if !present {
		return nil, ParseError{Msg: "Unable to find METADATA"}
	}
	container, ok := AsMap(metadata)
	if !ok {
		// METADATA with no element children carries no classes.
		return []interface{}{}, nil
	}
	classes, present := container["METADATA-CLASS"]
	if !present {
		return []interface{}{}, nil
	}
	return AsSlice(classes), nil
}
