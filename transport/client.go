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

package transport

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/icholy/digest"
	"github.com/mlipscombe/rets-mate/rets"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/htmlindex"
)

// Client carries RETS requests over HTTP. It applies headers and
// cookies exactly as given and hands bodies back as text, decoded
// from whatever charset the server declared.
type Client struct {
	Timeout time.Duration

	mu         sync.Mutex
	connection *http.Client
	username   string
	password   string
}

func NewClient(timeout time.Duration) *Client {
	return &Client{Timeout: timeout}
}

func (client *Client) Do(method, rawurl string, query url.Values, params rets.RequestParams) (*rets.Response, error) {
	request, err := http.NewRequest(method, rawurl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	if len(query) > 0 {
		if existing := request.URL.RawQuery; existing != "" {
			request.URL.RawQuery = existing + "&" + query.Encode()
		} else {
			request.URL.RawQuery = query.Encode()
		}
	}
	for name, value := range params.Headers {
		request.Header.Set(name, value)
	}
	if header := cookieHeader(params.Cookies); header != "" {
		request.Header.Set("Cookie", header)
	}

	log.Debugf("%s %s", method, request.URL)

	response, err := client.httpClient(params).Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", method, rawurl, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	// Protocol-level errors ride on 200 replies and belong to the
	// reply processors; anything else is a transport failure.
	if response.StatusCode >= 300 {
		return nil, fmt.Errorf("server returned %s for %s", response.Status, request.URL.Path)
	}

	contentType := response.Header.Get("Content-Type")
	body, err := decodeBody(raw, contentType)
	if err != nil {
		return nil, err
	}

	cookies := make(map[string]string)
	for _, header := range response.Header.Values("Set-Cookie") {
		if name, value, found := strings.Cut(header, "="); found {
			cookies[strings.TrimSpace(name)] = value
		}
	}

	log.Debugf("%s %s: %d, %d bytes", method, request.URL.Path, response.StatusCode, len(raw))

	return &rets.Response{
		StatusCode:  response.StatusCode,
		ContentType: contentType,
		Body:        body,
		Cookies:     cookies,
	}, nil
}

// httpClient returns the cached connection, rebuilding it when the
// credentials change. The digest transport answers 401 challenges
// itself; the RETS-UA-Authorization header rides as a plain header
// and is already fully formed.
func (client *Client) httpClient(params rets.RequestParams) *http.Client {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.connection != nil && client.username == params.Username && client.password == params.Password {
		return client.connection
	}

	var transport http.RoundTripper = http.DefaultTransport
	if params.Auth == rets.AuthDigest {
		transport = &digest.Transport{
			Username:  params.Username,
			Password:  params.Password,
			Transport: transport,
		}
	}
	client.connection = &http.Client{
		Transport: transport,
		Timeout:   client.Timeout,
	}
	client.username = params.Username
	client.password = params.Password
	return client.connection
}

func cookieHeader(cookies map[string]string) string {
	if len(cookies) == 0 {
		return ""
	}
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+cookies[name])
	}
	return strings.Join(pairs, "; ")
}

// decodeBody converts the reply to UTF-8 per the Content-Type charset
// parameter. Legacy servers still reply in ISO-8859-1 or windows-1252.
func decodeBody(raw []byte, contentType string) (string, error) {
	if contentType == "" {
		return string(raw), nil
	}
	_, mediaParams, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(raw), nil
	}
	name := mediaParams["charset"]
	if name == "" || strings.EqualFold(name, "utf-8") {
		return string(raw), nil
	}
	encoding, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("unsupported charset %q: %w", name, err)
	}
	decoded, err := encoding.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s body: %w", name, err)
	}
	return string(decoded), nil
}
