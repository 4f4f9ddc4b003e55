/*
 * This file is part of the rets-mate distribution (https://github.com/mlipscombe/rets-mate).
 * Copyright (c) 2024-2026 Mark Lipscombe.
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

package monitor

import (
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/mlipscombe/rets-mate/rets"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeTransport struct {
	mu        sync.Mutex
	responses map[string]*rets.Response
}

func (f *fakeTransport) Do(method, rawurl string, query url.Values, params rets.RequestParams) (*rets.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parsed, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	response, ok := f.responses[parsed.Path+"?Class="+query.Get("Class")]
	if !ok {
		response, ok = f.responses[parsed.Path]
	}
	if !ok {
		return nil, fmt.Errorf("no canned response for %s", parsed.Path)
	}
	return response, nil
}

func (f *fakeTransport) set(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[path] = &rets.Response{StatusCode: 200, ContentType: "text/xml", Body: body}
}

// setClass serves a body only for searches against the given class.
func (f *fakeTransport) setClass(path, class, body string) {
	f.set(path+"?Class="+class, body)
}

const loginBody = `<RETS ReplyCode="0" ReplyText="Operation Successful">
<RETS-RESPONSE>
Search=/rets/search
Logout=/rets/logout
</RETS-RESPONSE>
</RETS>`

func searchBody(mlsNumber, listPrice string) string {
	return fmt.Sprintf(`<RETS ReplyCode="0" ReplyText="Operation Successful">
<COUNT Records="1"/>
<REData>
<REProperties>
<Property>
<MLSNumber>%s</MLSNumber>
<ListPrice>%s</ListPrice>
</Property>
</REProperties>
</REData>
</RETS>`, mlsNumber, listPrice)
}

type published struct {
	key    string
	fields map[string]interface{}
}

func TestStartSearchMonitor(t *testing.T) {
	fake := &fakeTransport{responses: make(map[string]*rets.Response)}
	fake.set("/rets/login", loginBody)
	fake.set("/rets/search", searchBody("12345", "100000"))

	client := rets.NewClient(rets.Config{LoginURL: "http://mls.example.com/rets/login"}, fake)
	if err := client.Login(); err != nil {
		t.Fatalf("Failed to login: %v", err)
	}

	updates := make(chan published, 16)
	ready := StartSearchMonitor(client, Watch{
		Resource: "Property",
		Class:    "Listing",
		Query:    "(MLSNumber=12345)",
		KeyField: "MLSNumber",
		Interval: 10 * time.Millisecond,
	}, func(key string, fields map[string]interface{}) {
		updates <- published{key: key, fields: fields}
	})

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the monitor to become ready")
	}

	select {
	case update := <-updates:
		if update.key != "12345" {
			t.Errorf("Expected key 12345, got %q", update.key)
		}
		if update.fields["ListPrice"] != "100000" {
			t.Errorf("Expected ListPrice 100000, got %v", update.fields["ListPrice"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected an initial publish")
	}

	// Unchanged records are not republished
	time.Sleep(100 * time.Millisecond)
	select {
	case update := <-updates:
		t.Fatalf("Expected no republish for unchanged fields, got %v", update)
	default:
	}

	fake.set("/rets/search", searchBody("12345", "110000"))
	select {
	case update := <-updates:
		if update.fields["ListPrice"] != "110000" {
			t.Errorf("Expected the changed ListPrice, got %v", update.fields["ListPrice"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a publish after the record changed")
	}
}

func TestStartSearchMonitorSharedResource(t *testing.T) {
	fake := &fakeTransport{responses: make(map[string]*rets.Response)}
	fake.set("/rets/login", loginBody)
	fake.setClass("/rets/search", "RES", searchBody("12345", "100000"))
	fake.setClass("/rets/search", "CON", searchBody("67890", "250000"))

	client := rets.NewClient(rets.Config{LoginURL: "http://mls.example.com/rets/login"}, fake)
	if err := client.Login(); err != nil {
		t.Fatalf("Failed to login: %v", err)
	}

	// Two watches on one resource share the gauge collectors
	for _, class := range []string{"RES", "CON"} {
		ready := StartSearchMonitor(client, Watch{
			Resource: "Office",
			Class:    class,
			KeyField: "MLSNumber",
			Interval: 10 * time.Millisecond,
		}, func(string, map[string]interface{}) {})

		select {
		case <-ready:
		case <-time.After(2 * time.Second):
			t.Fatalf("Expected the %s monitor to become ready", class)
		}
	}

	values := gaugeValues(t, "rets_mate_office_list_price")
	if values["RES"] != 100000 {
		t.Errorf("Expected the RES series at 100000, got %v", values)
	}
	if values["CON"] != 250000 {
		t.Errorf("Expected the CON series at 250000, got %v", values)
	}
}

// gaugeValues gathers the default registry and returns the series of
// one metric keyed by class label.
func gaugeValues(t *testing.T, name string) map[string]float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	values := make(map[string]float64)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "class" {
					values[label.GetValue()] = metric.GetGauge().GetValue()
				}
			}
		}
	}
	return values
}

func TestRecordKey(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]interface{}
		keyField string
		position int
		expected string
	}{
		{
			name:     "key field present",
			fields:   map[string]interface{}{"MLSNumber": "12345"},
			keyField: "MLSNumber",
			position: 3,
			expected: "12345",
		},
		{
			name:     "key field missing",
			fields:   map[string]interface{}{"ListPrice": "100000"},
			keyField: "MLSNumber",
			position: 3,
			expected: "3",
		},
		{
			name:     "no key field configured",
			fields:   map[string]interface{}{"MLSNumber": "12345"},
			keyField: "",
			position: 0,
			expected: "0",
		},
		{
			name:     "non-string key value",
			fields:   map[string]interface{}{"MLSNumber": []interface{}{"12345"}},
			keyField: "MLSNumber",
			position: 0,
			expected: "[12345]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recordKey(tt.fields, tt.keyField, tt.position); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		number  float64
		numeric bool
	}{
		{
			name:    "integer string",
			value:   "100000",
			number:  100000,
			numeric: true,
		},
		{
			name:    "decimal string",
			value:   " 1.36 ",
			number:  1.36,
			numeric: true,
		},
		{
			name:    "text",
			value:   "410 Grant Pl",
			numeric: false,
		},
		{
			name:    "non-string",
			value:   map[string]interface{}{"a": "1"},
			numeric: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, numeric := numericValue(tt.value)
			if numeric != tt.numeric {
				t.Fatalf("Expected numeric=%v, got %v", tt.numeric, numeric)
			}
			if numeric && number != tt.number {
				t.Errorf("Expected %v, got %v", tt.number, number)
			}
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "camel case",
			input:    "ListPrice",
			expected: "list_price",
		},
		{
			name:     "acronym run",
			input:    "MLSNumber",
			expected: "mlsnumber",
		},
		{
			name:     "hyphenated",
			input:    "Lot-Size",
			expected: "lot_size",
		},
		{
			name:     "leading digit",
			input:    "123abc",
			expected: "_123abc",
		},
		{
			name:     "empty",
			input:    "",
			expected: "field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeName(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
