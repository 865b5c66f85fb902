package history

import (
	"testing"

	"github.com/tidwall/gjson"
)

func parsePost(t *testing.T, raw string) Post {
	t.Helper()
	return Post{raw: gjson.Parse(raw)}
}

func TestCampaignNameFallbackChain(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"flow":{"name":"flow name"},"name":"n","preview":"p"}`, "flow name"},
		{`{"name":"top-level","preview":"p"}`, "top-level"},
		{`{"preview":"preview text","namespace":"ns"}`, "preview text"},
		{`{"namespace":"ns-123"}`, "ns-123"},
		{`{}`, ""},
	}
	for _, c := range cases {
		if got := parsePost(t, c.raw).CampaignName(); got != c.want {
			t.Errorf("CampaignName(%s) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestStatReadFallsBackToOpened(t *testing.T) {
	p := parsePost(t, `{"stats":{"sent":100,"opened":42}}`)
	if got := p.Stat("read"); got != 42 {
		t.Fatalf("read = %d, want 42", got)
	}
	p = parsePost(t, `{"stats":{"read":7,"opened":42}}`)
	if got := p.Stat("read"); got != 7 {
		t.Fatalf("read = %d, want 7", got)
	}
	p = parsePost(t, `{"stats":{"clicked":null}}`)
	if got := p.Stat("clicked"); got != 0 {
		t.Fatalf("null counter = %d, want 0", got)
	}
	if got := p.Stat("delivered"); got != 0 {
		t.Fatalf("absent counter = %d, want 0", got)
	}
}

func TestStatusNormalization(t *testing.T) {
	if got := parsePost(t, `{"status":"sent"}`).Status(); got != "published" {
		t.Fatalf("status = %q, want published", got)
	}
	if got := parsePost(t, `{"status":"draft"}`).Status(); got != "draft" {
		t.Fatalf("status = %q, want draft", got)
	}
	if got := parsePost(t, `{}`).Status(); got != "unknown" {
		t.Fatalf("status = %q, want unknown", got)
	}
}

func TestIDAndScheduledTimeFallbacks(t *testing.T) {
	p := parsePost(t, `{"id":"legacy-9"}`)
	if p.ID() != "legacy-9" {
		t.Fatalf("id = %q", p.ID())
	}
	p = parsePost(t, `{"post_id":"p-1","id":"legacy"}`)
	if p.ID() != "p-1" {
		t.Fatalf("id = %q", p.ID())
	}

	p = parsePost(t, `{"timestamp":100,"created_at":90,"scheduled_time":80}`)
	if p.ScheduledTime() != 80 {
		t.Fatalf("scheduled = %d", p.ScheduledTime())
	}
	p = parsePost(t, `{"timestamp":100,"created_at":90}`)
	if p.ScheduledTime() != 90 {
		t.Fatalf("scheduled = %d", p.ScheduledTime())
	}
	p = parsePost(t, `{"timestamp":100}`)
	if p.ScheduledTime() != 100 {
		t.Fatalf("scheduled = %d", p.ScheduledTime())
	}
}
