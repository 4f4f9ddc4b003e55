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

// Canonical capability names, keyed into the method-URL table built
// from a login reply.
const (
	CapabilityAction            = "ACTION"
	CapabilityChangePassword    = "CHANGE_PASSWORD"
	CapabilityGetMetadata       = "GET_METADATA"
	CapabilityGetObject         = "GET_OBJECT"
	CapabilityGetPayloadList    = "GET_PAYLOAD_LIST"
	CapabilityLogin             = "LOGIN"
	CapabilityLoginComplete     = "LOGIN_COMPLETE"
	CapabilityLogout            = "LOGOUT"
	CapabilityPostObject        = "POST_OBJECT"
	CapabilitySearch            = "SEARCH"
	CapabilityServerInformation = "SERVER_INFORMATION"
	CapabilityUpdate            = "UPDATE"
)

// Capability action names in the protocol's native casing, per the
// RETS 1.7.2 login transaction.
var capabilityNames = map[string]string{
	"Action":            CapabilityAction,
	"ChangePassword":    CapabilityChangePassword,
	"GetMetadata":       CapabilityGetMetadata,
	"GetObject":         CapabilityGetObject,
	"GetPayloadList":    CapabilityGetPayloadList,
	"Login":             CapabilityLogin,
	"LoginComplete":     CapabilityLoginComplete,
	"Logout":            CapabilityLogout,
	"PostObject":        CapabilityPostObject,
	"Search":            CapabilitySearch,
	"ServerInformation": CapabilityServerInformation,
	"Update":            CapabilityUpdate,
}

// BuildMethodURLTable maps a decoded capability body onto the
// canonical capability constants. Keys outside the recognized action
// set are dropped silently; login replies carry plenty of
// non-capability fields.
func BuildMethodURLTable(body map[string]string) map[string]string {
	table := make(map[string]string)
	for name, rawurl := range body {
		if canonical, ok := capabilityNames[name]; ok {
			table[canonical] = rawurl
		}
	}
	return table
}
