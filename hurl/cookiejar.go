// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// CookieJar wraps the standard library's cookie jar. It is owned by
// one HTTP client for the lifetime of a sequential run over one file
// (spec.md section 3's lifecycle note) and is never shared across
// parallel workers.
type CookieJar struct {
	*cookiejar.Jar
}

// NewCookieJar returns an empty jar using the public suffix list for
// domain-matching, matching net/http's recommended configuration.
func NewCookieJar() (*CookieJar, error) {
	j, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &CookieJar{Jar: j}, nil
}

// netscapeCookie is one row of a Netscape cookie file.
type netscapeCookie struct {
	Domain           string
	IncludeSubdomain bool
	Path             string
	Secure           bool
	Expires          int64
	Name             string
	Value            string
	HttpOnly         bool
}

// ReadNetscapeFile loads cookies from a Netscape-format cookie file
// (spec.md section 6) and seeds each row into the jar under the row's
// own domain; only the scheme is taken from baseURL.
func (j *CookieJar) ReadNetscapeFile(r io.Reader, baseURL *url.URL) error {
	rows, err := parseNetscapeCookies(r)
	if err != nil {
		return err
	}
	byDomain := map[string][]*http.Cookie{}
	for _, row := range rows {
		c := &http.Cookie{
			Name:     row.Name,
			Value:    row.Value,
			Path:     row.Path,
			Secure:   row.Secure,
			HttpOnly: row.HttpOnly,
		}
		if row.Expires > 0 {
			c.Expires = time.Unix(row.Expires, 0)
		}
		byDomain[row.Domain] = append(byDomain[row.Domain], c)
	}
	for domain, cookies := range byDomain {
		u := &url.URL{Scheme: baseURL.Scheme, Host: domain}
		j.SetCookies(u, cookies)
	}
	return nil
}

func parseNetscapeCookies(r io.Reader) ([]netscapeCookie, error) {
	var out []netscapeCookie
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		httpOnly := false
		if strings.HasPrefix(line, "#HttpOnly_") {
			httpOnly = true
			line = strings.TrimPrefix(line, "#HttpOnly_")
		} else if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}
		expires, _ := strconv.ParseInt(fields[4], 10, 64)
		out = append(out, netscapeCookie{
			Domain:           fields[0],
			IncludeSubdomain: fields[1] == "TRUE",
			Path:             fields[2],
			Secure:           fields[3] == "TRUE",
			Expires:          expires,
			Name:             fields[5],
			Value:            fields[6],
			HttpOnly:         httpOnly,
		})
	}
	return out, sc.Err()
}

// WriteNetscapeFile serializes every cookie currently held for url
// into the Netscape format.
func (j *CookieJar) WriteNetscapeFile(w io.Writer, u *url.URL) error {
	cookies := j.Cookies(u)
	for _, c := range cookies {
		includeSub := "FALSE"
		httpOnlyPrefix := ""
		if c.HttpOnly {
			httpOnlyPrefix = "#HttpOnly_"
		}
		expires := int64(0)
		if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		secure := "FALSE"
		if c.Secure {
			secure = "TRUE"
		}
		_, err := fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			httpOnlyPrefix, u.Hostname(), includeSub, path, secure, expires, c.Name, c.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

// cookieAttr resolves one of the attribute names recognized by
// Query.Cookie (Value, Expires, MaxAge, Domain, Path, Secure,
// HttpOnly, SameSite) against a cookie we received in a response.
func cookieAttr(c *http.Cookie, attr string) (Value, bool) {
	switch attr {
	case "", "Value":
		return Str(c.Value), true
	case "Expires":
		if c.Expires.IsZero() {
			return Value{}, false
		}
		return Str(c.Expires.Format(time.RFC1123)), true
	case "MaxAge":
		return Int(int64(c.MaxAge)), true
	case "Domain":
		if c.Domain == "" {
			return Value{}, false
		}
		return Str(c.Domain), true
	case "Path":
		if c.Path == "" {
			return Value{}, false
		}
		return Str(c.Path), true
	case "Secure":
		if !c.Secure {
			return Value{}, false
		}
		return Unit(), true
	case "HttpOnly":
		if !c.HttpOnly {
			return Value{}, false
		}
		return Unit(), true
	case "SameSite":
		if c.SameSite == http.SameSiteDefaultMode {
			return Value{}, false
		}
		return Str(sameSiteName(c.SameSite)), true
	}
	return Value{}, false
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "Lax"
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	}
	return ""
}
