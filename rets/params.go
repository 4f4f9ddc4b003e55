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

// Defaults applied when the configuration leaves the field empty.
const (
	DefaultVersion   = "RETS/1.7.2"
	DefaultUserAgent = "rets-mate/1.0"
)

// AuthDigest instructs the transport to answer HTTP digest challenges
// with the configured credentials.
const AuthDigest = "digest"

// Config carries the per-server settings for a RETS session.
type Config struct {
	LoginURL          string
	Username          string
	Password          string
	UserAgent         string
	UserAgentPassword string
	Version           string
}

func (c Config) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}

func (c Config) version() string {
	if c.Version != "" {
		return c.Version
	}
	return DefaultVersion
}

// RequestParams is everything the transport needs to issue one
// protocol-compliant request. Headers always carry RETS-Version and
// User-Agent; RETS-UA-Authorization is present exactly when a user
// agent password is configured. ParseResponse stays false: reply
// bodies come back as raw text for the reply processors.
type RequestParams struct {
	Auth          string
	Username      string
	Password      string
	Cookies       map[string]string
	Headers       map[string]string
	ParseResponse bool
}

// BuildRequestParams assembles the outbound request parameters for one
// request. cookies is copied into a fresh map, so the caller's jar is
// never aliased; sessionID feeds the user agent digest and may be
// empty before login.
func BuildRequestParams(cfg Config, cookies map[string]string, sessionID string) RequestParams {
	headers := map[string]string{
		"RETS-Version": cfg.version(),
		"User-Agent":   cfg.userAgent(),
	}
	if cfg.UserAgentPassword != "" {
		headers["RETS-UA-Authorization"] = UserAgentAuthHeader(cfg.userAgent(), cfg.UserAgentPassword, sessionID, cfg.version())
	}

	jar := make(map[string]string, len(cookies))
	for name, value := range cookies {
		jar[name] = value
	}

	return RequestParams{
		Auth:          AuthDigest,
		Username:      cfg.Username,
		Password:      cfg.Password,
		Cookies:       jar,
		Headers:       headers,
		ParseResponse: false,
	}
}
