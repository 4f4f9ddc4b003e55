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

package rets

import (
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Response is what the transport hands back for one request: the reply
// body as charset-decoded text and the raw cookie jar, cookie values
// still carrying their attributes.
type Response struct {
	StatusCode  int
	ContentType string
	Body        string
	Cookies     map[string]string
}

// Transport issues a single HTTP request with the given parameters
// applied verbatim.
type Transport interface {
	Do(method, rawurl string, query url.Values, params RequestParams) (*Response, error)
}

// SearchOptions selects what a Search asks the server for. QueryType
// defaults to DMQL2 and Format to STANDARD-XML.
type SearchOptions struct {
	Resource  string
	Class     string
	Query     string
	QueryType string
	Format    string
	Limit     int
	Count     bool
	Flatten   bool
}

// Client holds one RETS session: the capability table discovered at
// login, the continuity cookies, and the server-assigned session id
// that feeds the user agent digest on every subsequent request.
type Client struct {
	Config    Config
	transport Transport
	runID     string

	mu        sync.RWMutex
	urls      map[string]string
	cookies   map[string]string
	sessionID string
	info      map[string]string
}

func NewClient(cfg Config, transport Transport) *Client {
	return &Client{
		Config:    cfg,
		transport: transport,
		runID:     uuid.NewString()[:8],
		urls:      make(map[string]string),
		cookies:   make(map[string]string),
		info:      make(map[string]string),
	}
}

func (client *Client) logger() *log.Entry {
	return log.WithField("session", client.runID)
}

// Login performs the login transaction: it decodes the key=value
// capability body, builds the method-URL table and keeps the leftover
// fields (MemberName, MetadataVersion, ...) as session info.
func (client *Client) Login() error {
	response, err := client.request("GET", client.Config.LoginURL, nil)
	if err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}
	body, err := ExtractBodyText(response.Body)
	if err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}

	fields := DecodeBlock(body)
	info := make(map[string]string)
	for key, value := range fields {
		if _, ok := capabilityNames[key]; !ok {
			info[key] = value
		}
	}

	client.mu.Lock()
	client.urls = BuildMethodURLTable(fields)
	client.info = info
	capabilities := len(client.urls)
	client.mu.Unlock()

	client.logger().Infof("logged in to %s with %d capabilities", client.Config.LoginURL, capabilities)
	return nil
}

// Search runs a search transaction against the SEARCH capability and
// returns the parsed result set.
func (client *Client) Search(opts SearchOptions) (*QueryResult, error) {
	rawurl, err := client.capability(CapabilitySearch)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	query := url.Values{}
	query.Set("SearchType", opts.Resource)
	query.Set("Class", opts.Class)
	query.Set("Query", opts.Query)
	if opts.QueryType != "" {
		query.Set("QueryType", opts.QueryType)
	} else {
		query.Set("QueryType", "DMQL2")
	}
	if opts.Format != "" {
		query.Set("Format", opts.Format)
	} else {
		query.Set("Format", "STANDARD-XML")
	}
	if opts.Limit > 0 {
		query.Set("Limit", strconv.Itoa(opts.Limit))
	}
	if opts.Count {
		query.Set("Count", "1")
	}

	response, err := client.request("GET", rawurl, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return ParseQuery(response.Body, opts.Resource, opts.Flatten)
}

// GetMetadata fetches the class metadata for a resource, or for the
// whole system when resource is empty.
func (client *Client) GetMetadata(resource string) ([]interface{}, error) {
	rawurl, err := client.capability(CapabilityGetMetadata)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	id := resource
	if id == "" {
		id = "0"
	}
	query := url.Values{}
	query.Set("Type", "METADATA-CLASS")
	query.Set("ID", id)
	query.Set("Format", "STANDARD-XML")

	response, err := client.request("GET", rawurl, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	return ParseMetadata(response.Body)
}

// Logout ends the session and clears all session state. Logout bodies
// vary wildly between servers, so an undecodable body is not an error;
// whatever fields did decode (ConnectTime, Billing, ...) are returned.
func (client *Client) Logout() (map[string]string, error) {
	rawurl, err := client.capability(CapabilityLogout)
	if err != nil {
		return nil, fmt.Errorf("failed to logout: %w", err)
	}

	response, err := client.request("GET", rawurl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to logout: %w", err)
	}

	fields := make(map[string]string)
	if body, err := ExtractBodyText(response.Body); err == nil {
		fields = DecodeBlock(body)
	} else {
		client.logger().Debugf("ignoring logout body: %s", err)
	}

	client.mu.Lock()
	client.urls = make(map[string]string)
	client.cookies = make(map[string]string)
	client.sessionID = ""
	client.info = make(map[string]string)
	client.mu.Unlock()

	client.logger().Info("logged out")
	return fields, nil
}

// CapabilityURL resolves a capability constant to its absolute URL.
func (client *Client) CapabilityURL(name string) (string, bool) {
	resolved, err := client.capability(name)
	if err != nil {
		return "", false
	}
	return resolved, true
}

// SessionID returns the server-assigned session id, or "" before the
// server has issued one.
func (client *Client) SessionID() string {
	client.mu.RLock()
	defer client.mu.RUnlock()
	return client.sessionID
}

// Info returns a copy of the non-capability login fields.
func (client *Client) Info() map[string]string {
	client.mu.RLock()
	defer client.mu.RUnlock()
	info := make(map[string]string, len(client.info))
	for key, value := range client.info {
		info[key] = value
	}
	return info
}

func (client *Client) request(method, rawurl string, query url.Values) (*Response, error) {
	client.mu.RLock()
	params := BuildRequestParams(client.Config, client.cookies, client.sessionID)
	client.mu.RUnlock()

	response, err := client.transport.Do(method, rawurl, query, params)
	if err != nil {
		return nil, err
	}
	client.absorbCookies(response.Cookies)
	return response, nil
}

// absorbCookies merges a reply's cookies into the continuity jar with
// their attributes stripped, and captures the session id from the raw
// values.
func (client *Client) absorbCookies(raw map[string]string) {
	if len(raw) == 0 {
		return
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	for name, value := range raw {
		client.cookies[name] = stripCookieAttributes(value)
	}
	if id := ExtractSessionID(raw); id != "" {
		client.sessionID = id
	}
}

func (client *Client) capability(name string) (string, error) {
	client.mu.RLock()
	rawurl, ok := client.urls[name]
	client.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no %s capability, login first", name)
	}

	target, err := url.Parse(rawurl)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s URL %q: %w", name, rawurl, err)
	}
	if target.IsAbs() {
		return rawurl, nil
	}

	// Many servers advertise capability URLs relative to the login URL.
	base, err := url.Parse(client.Config.LoginURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse login URL: %w", err)
	}
	return base.ResolveReference(target).String(), nil
}
