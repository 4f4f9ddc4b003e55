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
	"errors"
	"testing"

	cmp "github.com/google/go-cmp/cmp"
)

func TestParseQuerySingleRow(t *testing.T) {
	xmlText := `<RETS ReplyCode="0" ReplyText="Operation Successful">
		<REData>
			<REProperties>
				<Property>
					<ListingID>4210042</ListingID>
					<Status>Active</Status>
				</Property>
			</REProperties>
		</REData>
	</RETS>`

	result, err := ParseQuery(xmlText, "Property", false)
	if err != nil {
		t.Fatalf("Failed to parse query: %v", err)
	}
	if len(result.Objects) != 1 {
		t.Fatalf("Expected 1 object, got %d", len(result.Objects))
	}
	if result.Count != nil {
		t.Errorf("Expected no count when the source advertised none, got %d", *result.Count)
	}

	object, ok := AsMap(result.Objects[0])
	if !ok {
		t.Fatalf("Expected an object mapping, got %T", result.Objects[0])
	}
	if object["ListingID"] != "4210042" {
		t.Errorf("Expected ListingID 4210042, got %v", object["ListingID"])
	}
}

func TestParseQueryMultipleRows(t *testing.T) {
	xmlText := `<RETS ReplyCode="0" ReplyText="Operation Successful">
		<COUNT Records="2"/>
		<REData>
			<REProperties>
				<Property><ListingID>1</ListingID></Property>
				<Property><ListingID>2</ListingID></Property>
			</REProperties>
		</REData>
	</RETS>`

	result, err := ParseQuery(xmlText, "Property", false)
	if err != nil {
		t.Fatalf("Failed to parse query: %v", err)
	}
	if len(result.Objects) != 2 {
		t.Fatalf("Expected 2 objects, got %d", len(result.Objects))
	}
	if result.Count == nil || *result.Count != 2 {
		t.Errorf("Expected count 2, got %v", result.Count)
	}

	first, _ := AsMap(result.Objects[0])
	second, _ := AsMap(result.Objects[1])
	if first["ListingID"] != "1" || second["ListingID"] != "2" {
		t.Errorf("Expected rows in document order, got %v then %v", first, second)
	}
}

func TestParseQueryNonSearchContent(t *testing.T) {
	result, err := ParseQuery(`<RETS ReplyCode="0" ReplyText="OK"><RETS-RESPONSE>a=1</RETS-RESPONSE></RETS>`, "Property", false)
	if err != nil {
		t.Fatalf("Expected an empty result, got %v", err)
	}
	if result.Count == nil || *result.Count != 0 {
		t.Errorf("Expected an explicit zero count, got %v", result.Count)
	}
	if len(result.Objects) != 0 {
		t.Errorf("Expected no objects, got %v", result.Objects)
	}
}

func TestParseQueryEmptyInput(t *testing.T) {
	result, err := ParseQuery("", "Property", false)
	if err != nil {
		t.Fatalf("Expected an empty result for empty input, got %v", err)
	}
	if result.Count == nil || *result.Count != 0 || len(result.Objects) != 0 {
		t.Errorf("Expected a zero-count empty result, got %+v", result)
	}
}

func TestParseQueryUnknownResourceFallsBack(t *testing.T) {
	xmlText := `<RETS ReplyCode="0" ReplyText="Operation Successful">
		<REData>
			<REProperties>
				<Property><ListingID>1</ListingID></Property>
			</REProperties>
		</REData>
	</RETS>`

	result, err := ParseQuery(xmlText, "Condo", false)
	if err != nil {
		t.Fatalf("Expected the fallback object, got %v", err)
	}
	if len(result.Objects) != 1 {
		t.Fatalf("Expected the whole payload as a single object, got %d objects", len(result.Objects))
	}
	payload, ok := AsMap(result.Objects[0])
	if !ok {
		t.Fatalf("Expected the payload mapping, got %T", result.Objects[0])
	}
	if _, present := payload["REProperties"]; !present {
		t.Errorf("Expected the untouched REData subtree, got %v", payload)
	}
}

func TestParseQueryEmptyREData(t *testing.T) {
	xmlText := `<RETS ReplyCode="0" ReplyText="Operation Successful">
		<COUNT Records="0"/>
		<REData/>
	</RETS>`

	result, err := ParseQuery(xmlText, "Property", false)
	if err != nil {
		t.Fatalf("Expected an empty result, got %v", err)
	}
	if result.Count == nil || *result.Count != 0 {
		t.Errorf("Expected count 0, got %v", result.Count)
	}
	if len(result.Objects) != 0 {
		t.Errorf("Expected no objects for an empty REData, got %v", result.Objects)
	}
}

func TestParseQueryFlatten(t *testing.T) {
	xmlText := `<RETS ReplyCode="0" ReplyText="Operation Successful">
		<REData>
			<REProperties>
				<Property>
					<Address><DisplayStreetNumber>410</DisplayStreetNumber></Address>
					<Lot><Description><LotAcreage>1.36</LotAcreage></Description></Lot>
				</Property>
			</REProperties>
		</REData>
	</RETS>`

	result, err := ParseQuery(xmlText, "Property", true)
	if err != nil {
		t.Fatalf("Failed to parse query: %v", err)
	}
	if len(result.Objects) != 1 {
		t.Fatalf("Expected 1 object, got %d", len(result.Objects))
	}

	expected := map[string]interface{}{
		"DisplayStreetNumber": "410",
		"LotAcreage":          "1.36",
	}
	if diff := cmp.Diff(expected, result.Objects[0]); diff != "" {
		t.Errorf("Flattened object mismatch (-want +got):\n%s", diff)
	}
}

func TestParseQueryFlattenMergesAttributes(t *testing.T) {
	xmlText := `<RETS ReplyCode="0" ReplyText="Operation Successful">
		<REData>
			<REProperties>
				<Property MLSNumber="X100">
					<Price>125000</Price>
				</Property>
			</REProperties>
		</REData>
	</RETS>`

	result, err := ParseQuery(xmlText, "Property", true)
	if err != nil {
		t.Fatalf("Failed to parse query: %v", err)
	}

	expected := map[string]interface{}{
		"MLSNumber": "X100",
		"Price":     "125000",
	}
	if diff := cmp.Diff(expected, result.Objects[0]); diff != "" {
		t.Errorf("Flattened object mismatch (-want +got):\n%s", diff)
	}
}

func TestParseQueryIgnoresUnparsableCount(t *testing.T) {
	xmlText := `<RETS ReplyCode="0" ReplyText="OK">
		<COUNT Records="lots"/>
		<REData><REProperties><Property><ListingID>1</ListingID></Property></REProperties></REData>
	</RETS>`

	result, err := ParseQuery(xmlText, "Property", false)
	if err != nil {
		t.Fatalf("Failed to parse query: %v", err)
	}
	if result.Count != nil {
		t.Errorf("Expected no count for a non-numeric total, got %d", *result.Count)
	}
}

func TestParseQueryReplyCodePropagates(t *testing.T) {
	_, err := ParseQuery(`<RETS ReplyCode="20201" ReplyText="no matches"/>`, "Property", false)
	var protocolErr ProtocolError
	if !errors.As(err, &protocolErr) {
		t.Fatalf("Expected a ProtocolError, got %v", err)
	}
	if protocolErr.Error() != "20201: No Records Found" {
		t.Errorf("Expected \"20201: No Records Found\", got %q", protocolErr.Error())
	}
}
