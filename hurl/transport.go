// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hurl

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultUserAgent is sent when a request carries no explicit
// User-Agent header, matching the teacher's own convention of
// stamping a recognizable default rather than leaving it to whatever
// net/http fills in.
var DefaultUserAgent = "hurlgo/1.0"

// newTransport builds a *http.Transport honoring the per-entry
// ClientOptions that affect the connection itself (TLS verification,
// proxy). Connection pooling and TLS session resumption are left to
// net/http, exactly the "delegated to the transport" framing of
// spec.md section 5.
func newTransport(opts ClientOptions) *http.Transport {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: opts.Insecure},
	}
	if opts.ConnectTimeout > 0 {
		t.DialContext = (&net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	}
	return t
}

// Client wraps a net/http.Client plus the cookie jar it shares with
// one worker's sequential runs. One Client is created per parallel
// worker and reused across every file that worker processes
// (connection pooling survives across files, per spec.md section 5).
type Client struct {
	HTTPClient *http.Client
	Jar        *CookieJar
}

// NewClient builds a Client with a fresh cookie jar.
func NewClient(opts ClientOptions) (*Client, error) {
	jar, err := NewCookieJar()
	if err != nil {
		return nil, err
	}
	return &Client{
		HTTPClient: &http.Client{
			Transport: newTransport(opts),
			Jar:       jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Jar: jar,
	}, nil
}

// Execute sends spec and returns the ordered list of Calls it
// produced: exactly one, unless FollowLocation is set and the server
// issued one or more redirects, in which case each hop is its own
// Call and TooManyRedirect is returned once MaxRedirs is exceeded.
func (c *Client) Execute(ctx context.Context, spec *RequestSpec, opts ClientOptions) ([]Call, error) {
	var calls []Call
	method, url, body := spec.Method, spec.URL, spec.Body
	headers := cloneParamsAsHeader(spec.Headers)
	contentType := explicitContentType(headers)
	if contentType == "" && spec.ImplicitContentType != "" {
		headers.Set("Content-Type", spec.ImplicitContentType)
	}

	redirects := 0
	for {
		if opts.MaxTime > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.MaxTime)
			defer cancel()
		}

		var reqBody io.Reader
		var finalHeaders http.Header
		var finalBody []byte
		if len(spec.Multipart) > 0 && redirects == 0 {
			b, ct, err := encodeMultipart(spec.Multipart)
			if err != nil {
				return calls, &RunnerError{Kind: ErrCouldNotParseResponse, Message: "multipart encoding failed", Cause: err}
			}
			finalBody = b
			reqBody = bytes.NewReader(b)
			finalHeaders = headers.Clone()
			finalHeaders.Set("Content-Type", ct)
		} else {
			finalBody = body
			reqBody = bytes.NewReader(body)
			finalHeaders = headers
		}

		httpReq, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return calls, &RunnerError{Kind: ErrLibcurl, Message: err.Error(), Cause: err}
		}
		httpReq.Header = finalHeaders
		if httpReq.Header.Get("User-Agent") == "" {
			httpReq.Header.Set("User-Agent", DefaultUserAgent)
		}
		for _, ck := range spec.Cookies {
			httpReq.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		}

		start := time.Now()
		httpResp, err := c.HTTPClient.Do(httpReq)
		duration := time.Since(start)
		if err != nil {
			return calls, &RunnerError{Kind: ErrLibcurl, Message: err.Error(), Cause: err}
		}

		raw, readErr := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if readErr != nil {
			return calls, &RunnerError{Kind: ErrCouldNotParseResponse, Message: readErr.Error(), Cause: readErr}
		}

		isHTML := strings.Contains(httpResp.Header.Get("Content-Type"), "text/html")
		resp := Response{
			StatusCode: httpResp.StatusCode,
			Proto:      httpResp.Proto,
			Headers:    httpResp.Header,
			Cookies:    httpResp.Cookies(),
			Body:       NewBodyCache(raw, isHTML),
			Duration:   duration,
			RemoteIP:   remoteIP(httpResp),
			TLS:        tlsInfo(httpResp),
		}
		call := Call{
			Request:  ExecutedRequest{Method: method, URL: url, Headers: finalHeaders, Body: finalBody},
			Response: resp,
			Timings:  Timings{Total: duration},
		}
		calls = append(calls, call)

		if !opts.FollowLocation || !isRedirect(httpResp.StatusCode) {
			return calls, nil
		}
		loc := httpResp.Header.Get("Location")
		if loc == "" {
			return calls, nil
		}
		redirects++
		if redirects > opts.MaxRedirs {
			return calls, &RunnerError{Kind: ErrTooManyRedirect, Message: fmt.Sprintf("exceeded %d redirects", opts.MaxRedirs)}
		}
		url = resolveRedirect(url, loc)
		method = "GET"
		body = nil
		spec.Multipart = nil
	}
}

func isRedirect(code int) bool {
	return code == 301 || code == 302 || code == 303 || code == 307 || code == 308
}

func resolveRedirect(base, loc string) string {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return loc
	}
	i := strings.Index(base, "://")
	if i < 0 {
		return loc
	}
	hostEnd := strings.Index(base[i+3:], "/")
	if hostEnd < 0 {
		return base + loc
	}
	return base[:i+3+hostEnd] + loc
}

func cloneParamsAsHeader(params []Param) http.Header {
	h := http.Header{}
	for _, p := range params {
		h.Add(p.Name, p.Value)
	}
	return h
}

func explicitContentType(h http.Header) string {
	return h.Get("Content-Type")
}

func remoteIP(resp *http.Response) string {
	if resp.Request == nil || resp.Request.RemoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(resp.Request.RemoteAddr)
	if err != nil {
		return resp.Request.RemoteAddr
	}
	return host
}

func tlsInfo(resp *http.Response) *TLSInfo {
	if resp.TLS == nil || len(resp.TLS.PeerCertificates) == 0 {
		return nil
	}
	cert := resp.TLS.PeerCertificates[0]
	return &TLSInfo{
		Subject:      cert.Subject.String(),
		Issuer:       cert.Issuer.String(),
		ExpireDate:   cert.NotAfter,
		SerialNumber: cert.SerialNumber.String(),
	}
}

func encodeMultipart(parts []MultipartFieldSpec) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.IsFile {
			ct := p.ContentType
			if ct == "" {
				ct = mime.TypeByExtension(extOf(p.FileName))
			}
			if ct == "" {
				ct = "application/octet-stream"
			}
			fw, err := createFormFileWithType(w, p.Name, p.FileName, ct)
			if err != nil {
				return nil, "", err
			}
			if _, err := fw.Write(p.FileContent); err != nil {
				return nil, "", err
			}
		} else {
			if err := w.WriteField(p.Name, p.Value); err != nil {
				return nil, "", err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func extOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i:]
}

func createFormFileWithType(w *multipart.Writer, fieldName, fileName, contentType string) (io.Writer, error) {
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldName, fileName)}
	h["Content-Type"] = []string{contentType}
	return w.CreatePart(h)
}
