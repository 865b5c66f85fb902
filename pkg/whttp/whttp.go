// Package whttp is a small wrapper around retryablehttp used by every
// component that talks HTTP: the capture bridge, the revenue API and the
// webhook exporter.
package whttp

import (
	"bytes"
	"compress/gzip"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
	Body    string
}

type WHTTPRes struct {
	StatusCode     int
	ResponseLength int
	BodyString     string
	Headers        http.Header
}

var defaultClient *retryablehttp.Client

func init() {
	defaultClient = retryablehttp.NewClient()
	defaultClient.Logger = log.New(io.Discard, "", 0)
	defaultClient.RetryMax = 3
	defaultClient.HTTPClient.Timeout = 30 * time.Second
}

// GetDefaultClient exposes the shared client so callers can tweak
// transport settings (proxy, TLS) in one place.
func GetDefaultClient() *retryablehttp.Client {
	return defaultClient
}

// SendHTTPRequest performs the request with the given client, falling
// back to the shared default when client is nil, and returns the decoded
// response body.
func SendHTTPRequest(wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	if client == nil {
		client = defaultClient
	}

	var bodyReader io.Reader
	if wReq.Body != "" {
		bodyReader = strings.NewReader(wReq.Body)
	}

	req, err := retryablehttp.NewRequest(wReq.Method, wReq.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en")
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	bodyBytes, err = GunzipIfNeeded(bodyBytes)
	if err != nil {
		return nil, err
	}

	return &WHTTPRes{
		StatusCode:     resp.StatusCode,
		ResponseLength: len(bodyBytes),
		BodyString:     string(bodyBytes),
		Headers:        resp.Header,
	}, nil
}

// GunzipIfNeeded transparently decompresses gzip payloads, detected by
// the two magic bytes. Capture bridges hand us response bodies exactly as
// they came off the wire, compressed or not.
func GunzipIfNeeded(body []byte) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
