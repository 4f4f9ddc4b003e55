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
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// parseDocument parses reply XML and returns its root element. Empty
// input returns (nil, nil): nothing to parse is not a parse failure.
func parseDocument(xmlText string) (*xmlquery.Node, error) {
	if strings.TrimSpace(xmlText) == "" {
		return nil, nil
	}
	doc, err := xmlquery.Parse(strings.NewReader(xmlText))
	if err != nil {
		return nil, ParseError{Msg: "Unable to parse XML", Err: err}
	}
	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child, nil
		}
	}
	// Plain text parses as a document with no root element.
	return nil, ParseError{Msg: "Unable to parse XML"}
}

// ParseEnvelope parses reply XML and applies the envelope rules: a
// RETS root with a non-zero ReplyCode is a ProtocolError, a zero or
// absent code yields the normalized envelope contents, and a non-RETS
// root is handed back whole so callers can inspect non-standard
// server replies. Empty input returns (nil, nil).
func ParseEnvelope(xmlText string) (interface{}, error) {
	root, err := parseDocument(xmlText)
	if err != nil || root == nil {
		return nil, err
	}
	if root.Data != "RETS" {
		return map[string]interface{}{root.Data: Simplify(root)}, nil
	}
	if err := replyStatus(root); err != nil {
		return nil, err
	}
	return Simplify(root), nil
}

func replyStatus(root *xmlquery.Node) error {
	var code, text string
	for _, attr := range root.Attr {
		switch attr.Name.Local {
		case "ReplyCode":
			code = strings.TrimSpace(attr.Value)
		case "ReplyText":
			text = attr.Value
		}
	}
	if code == "" || code == "0" {
		return nil
	}
	numeric, _ := strconv.Atoi(code)
	return ProtocolError{Code: numeric, Text: text}
}

// ExtractBodyText returns the text payload of the RETS-RESPONSE
// element. The envelope rules run first, so a non-zero reply code
// surfaces as a ProtocolError rather than a missing-element failure.
func ExtractBodyText(xmlText string) (string, error) {
	envelope, err := ParseEnvelope(xmlText)
	if err != nil {
		return "", err
	}
	if m, ok := AsMap(envelope); ok {
		switch body := m["RETS-RESPONSE"].(type) {
		case string:
			return body, nil
		case map[string]interface{}:
			if text, ok := body["_"].(string); ok {
				return text, nil
			}
		}
	}
	return "", ParseError{Msg: "Unable to find RETS-RESPONSE"}
}
