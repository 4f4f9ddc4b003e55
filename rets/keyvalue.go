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

import "strings"

// DecodeLine splits a key=value line at the first "=". A line with no
// "=" is a bare key: hasValue is false and the key is the whole trimmed
// line, which is not the same thing as a key with an empty value.
func DecodeLine(line string) (key, value string, hasValue bool) {
	if idx := strings.Index(line, "="); idx >= 0 {
		return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
	}
	return strings.TrimSpace(line), "", false
}

// DecodeBlock decodes a line-oriented key=value text body, as found in
// RETS-RESPONSE payloads. Blank lines are skipped, the last occurrence
// of a duplicate key wins, and bare keys are stored with an empty
// value. Empty input yields an empty map, never an error.
func DecodeBlock(text string) map[string]string {
	decoded := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, _ := DecodeLine(line)
		decoded[key] = value
	}
	return decoded
}
