package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/veerababu74/spunkads/internal/utils"
	"github.com/veerababu74/spunkads/pkg/whttp"
)

// Bridge talks to a local capture relay over HTTP. The relay owns the
// actual browser: it records every exchange the page makes and can run
// fetches inside the page context with the session's cookies. We only
// ever consume its JSON API.
type Bridge struct {
	BaseURL string
}

// NewBridge returns a provider for the relay at baseURL.
func NewBridge(baseURL string) *Bridge {
	return &Bridge{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

// Open starts a session for a page and waits for the relay to finish
// navigating to the page's history view.
func (b *Bridge) Open(pageID string) (PageSession, error) {
	body, _ := json.Marshal(map[string]string{"page_id": pageID})
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method:  "POST",
		URL:     b.BaseURL + "/sessions",
		Headers: []whttp.WHTTPHeader{{Name: "Content-Type", Value: "application/json"}},
		Body:    string(body),
	}, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 && res.StatusCode != 201 {
		return nil, fmt.Errorf("bridge refused session for page %s: status %d", pageID, res.StatusCode)
	}

	sid := gjson.Get(res.BodyString, "session_id").String()
	if sid == "" {
		return nil, fmt.Errorf("bridge returned no session id for page %s", pageID)
	}

	utils.Log.Debug("Opened bridge session ", sid, " for page ", pageID)
	return &bridgeSession{bridge: b, id: sid}, nil
}

type bridgeSession struct {
	bridge *Bridge
	id     string
}

const observePollInterval = 500 * time.Millisecond

func (s *bridgeSession) Observe(urlSubstring string, within time.Duration) (*Exchange, error) {
	deadline := time.Now().Add(within)
	for {
		res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
			Method: "GET",
			URL:    s.bridge.BaseURL + "/sessions/" + s.id + "/exchanges",
		}, nil)
		if err != nil {
			return nil, err
		}
		if res.StatusCode != 200 {
			return nil, fmt.Errorf("bridge exchange listing failed: status %d", res.StatusCode)
		}

		var found *Exchange
		var decodeErr error
		// Newest exchange wins; the relay lists oldest first.
		exchanges := gjson.Get(res.BodyString, "exchanges").Array()
		for i := len(exchanges) - 1; i >= 0; i-- {
			ex := exchanges[i]
			if !strings.Contains(ex.Get("url").String(), urlSubstring) {
				continue
			}
			found, decodeErr = decodeExchange(ex)
			if decodeErr == nil {
				break
			}
			// A malformed capture entry is skipped, not fatal.
			utils.Log.Debug("Skipping undecodable exchange: ", decodeErr)
			found = nil
		}
		if found != nil {
			return found, nil
		}

		if time.Now().After(deadline) {
			return nil, nil
		}
		time.Sleep(observePollInterval)
	}
}

func (s *bridgeSession) IssueAndAwait(url string, headers map[string]string, attempts int, interval time.Duration) (*Exchange, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"url":     url,
		"headers": headers,
	})
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method:  "POST",
		URL:     s.bridge.BaseURL + "/sessions/" + s.id + "/fetch",
		Headers: []whttp.WHTTPHeader{{Name: "Content-Type", Value: "application/json"}},
		Body:    string(payload),
	}, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 && res.StatusCode != 202 {
		return nil, fmt.Errorf("bridge fetch failed: status %d", res.StatusCode)
	}

	rid := gjson.Get(res.BodyString, "request_id").String()
	if rid == "" {
		return nil, fmt.Errorf("bridge returned no request id")
	}

	for i := 0; i < attempts; i++ {
		time.Sleep(interval)

		poll, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
			Method: "GET",
			URL:    s.bridge.BaseURL + "/sessions/" + s.id + "/fetch/" + rid,
		}, nil)
		if err != nil {
			return nil, err
		}
		if poll.StatusCode != 200 {
			continue
		}
		if !gjson.Get(poll.BodyString, "done").Bool() {
			continue
		}
		if errMsg := gjson.Get(poll.BodyString, "error").String(); errMsg != "" {
			return nil, fmt.Errorf("bridge fetch error: %s", errMsg)
		}
		return decodeExchange(gjson.Parse(poll.BodyString))
	}
	return nil, nil
}

func (s *bridgeSession) Close() error {
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "DELETE",
		URL:    s.bridge.BaseURL + "/sessions/" + s.id,
	}, nil)
	if err != nil {
		return err
	}
	if res.StatusCode != 200 && res.StatusCode != 204 {
		return fmt.Errorf("bridge session close failed: status %d", res.StatusCode)
	}
	return nil
}

// decodeExchange turns a relay exchange object into an Exchange: the
// body arrives base64-encoded and possibly gzip-compressed.
func decodeExchange(ex gjson.Result) (*Exchange, error) {
	raw, err := base64.StdEncoding.DecodeString(ex.Get("body").String())
	if err != nil {
		return nil, fmt.Errorf("decode exchange body: %w", err)
	}
	body, err := whttp.GunzipIfNeeded(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress exchange body: %w", err)
	}

	headers := make(map[string]string)
	ex.Get("request_headers").ForEach(func(key, value gjson.Result) bool {
		headers[key.String()] = value.String()
		return true
	})

	return &Exchange{
		URL:            ex.Get("url").String(),
		Body:           body,
		RequestHeaders: headers,
	}, nil
}
