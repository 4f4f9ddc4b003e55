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
	"crypto/md5"
	"encoding/hex"
)

// Hash returns the MD5 digest of content as 32 lowercase hex characters.
// RETS 1.7.2 fixes MD5 for the user agent authentication scheme.
func Hash(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

// UserAgentAuthHeader computes the RETS-UA-Authorization header value.
// The empty field between the two colons is the RETS-Request-ID slot,
// which this client never sends. An unknown session id stays an empty
// string; its slot is always present.
func UserAgentAuthHeader(userAgent, userAgentPassword, sessionID, version string) string {
	a1 := Hash([]byte(userAgent + ":" + userAgentPassword))
	return "Digest " + Hash([]byte(a1+"::"+sessionID+":"+version))
}
