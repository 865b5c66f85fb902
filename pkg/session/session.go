// Package session defines the authenticated-session boundary the
// paginator drives. A PageSession is one logged-in browser channel bound
// to a single page: it can report network exchanges the page already
// made on its own, and it can issue new ones re-using the page's cookies.
package session

import "time"

// Exchange is one completed network exchange observed or issued through
// a session. Body is the decoded (decompressed) response payload;
// RequestHeaders are the headers the browser sent, which later issued
// requests must replay to stay authenticated.
type Exchange struct {
	URL            string
	Body           []byte
	RequestHeaders map[string]string
}

// PageSession is an exclusive channel to one page. It is never shared
// across pages and is closed before the next page's session opens.
type PageSession interface {
	// Observe scans exchanges the page has already completed, newest
	// first, for one whose URL contains urlSubstring. It polls for up to
	// `within` and returns nil when nothing matched in time.
	Observe(urlSubstring string, within time.Duration) (*Exchange, error)

	// IssueAndAwait performs a new request inside the session with the
	// given headers, then polls for the result a bounded number of
	// attempts at the given interval. Returns nil when the bound is
	// exhausted without a result.
	IssueAndAwait(url string, headers map[string]string, attempts int, interval time.Duration) (*Exchange, error)

	Close() error
}

// Provider opens sessions. The concrete implementation is the capture
// bridge; tests substitute their own.
type Provider interface {
	Open(pageID string) (PageSession, error)
}
