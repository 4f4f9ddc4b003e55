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

import "fmt"

// ParseError reports malformed XML or a reply missing a structural
// element (RETS-RESPONSE, METADATA).
type ParseError struct {
	Msg string
	Err error
}

func (e ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err)
	}
	return e.Msg
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a non-zero ReplyCode in the reply envelope.
type ProtocolError struct {
	Code int
	Text string
}

func (e ProtocolError) Error() string {
	if message, ok := replyCodeMessages[e.Code]; ok {
		return fmt.Sprintf("%d: %s", e.Code, message)
	}
	return fmt.Sprintf("An error occurred (%d: %s)", e.Code, e.Text)
}

// RETS 1.7.2 reply codes. Codes missing from this table render through
// the generic branch above, so new server codes are not fatal.
var replyCodeMessages = map[int]string{
	// Login
	20003: "Zero Balance",
	20012: "Broker Code Required",
	20013: "Broker Code Invalid",
	20022: "Additional login not permitted",
	20036: "Miscellaneous server login error",
	20037: "Client authentication failed",
	20041: "User agent authentication required",
	20050: "Server Temporarily Disabled",

	// Search
	20200: "Unknown Query Field",
	20201: "No Records Found",
	20202: "Invalid Select",
	20203: "Miscellaneous Search Error",
	20206: "Invalid Query Syntax",
	20207: "Unauthorized Query",
	20208: "Maximum Records Exceeded",
	20209: "Timeout",
	20210: "Too many outstanding queries",
	20211: "Query too complex",
	20212: "Invalid key request",
	20213: "Invalid Key",

	// GetObject
	20400: "Invalid Resource",
	20401: "Invalid Type",
	20402: "Invalid Identifier",
	20403: "No Object Found",
	20406: "Unsupported MIME type",
	20407: "Unauthorized Retrieval",
	20408: "Resource Unavailable",
	20409: "Object Unavailable",
	20410: "Request Too Large",
	20411: "Timeout",
	20412: "Too many outstanding requests",
	20413: "Miscellaneous error",

	// GetMetadata
	20500: "Invalid Resource",
	20501: "Invalid Type",
	20502: "Invalid Identifier",
	20503: "No Metadata Found",
	20506: "Unsupported MimeType",
	20507: "Unauthorized Retrieval",
	20508: "Resource Unavailable",
	20509: "Metadata Unavailable",
	20510: "Request Too Large",
	20511: "Timeout",
	20512: "Too many outstanding requests",
	20513: "Miscellaneous error",
	20514: "Requested DTD version unavailable",

	// Logout
	20701: "Not logged in",
	20702: "Miscellaneous error",
}
