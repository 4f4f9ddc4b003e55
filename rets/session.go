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

const sessionCookie = "RETS-Session-ID"

// ExtractSessionID pulls the session identifier out of a raw cookie
// jar. Cookie values arrive with their attributes still attached
// ("1234567890; Path=/"), so everything from the first ";" on is
// stripped. A nil jar or a jar without the session cookie yields "".
func ExtractSessionID(cookies map[string]string) string {
	if cookies == nil {
		return ""
	}
	value, ok := cookies[sessionCookie]
	if !ok {
		return ""
	}
	return stripCookieAttributes(value)
}

func stripCookieAttributes(value string) string {
	if idx := strings.Index(value, ";"); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}
