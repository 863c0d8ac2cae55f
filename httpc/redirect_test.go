package httpc

import "testing"

func TestResolveRedirectRelative(t *testing.T) {
	req := NewRequest().Get("http://example.com/a/b?q=1")
	if !resolveRedirect(req, 302, "../c") {
		t.Fatalf("relative location must resolve")
	}
	if got := req.url.String(); got != "http://example.com/c" {
		t.Fatalf("url = %q", got)
	}
}

func TestResolveRedirectAbsolute(t *testing.T) {
	req := NewRequest().Get("http://example.com/a")
	if !resolveRedirect(req, 307, "https://other.example.com/b") {
		t.Fatalf("absolute location must resolve")
	}
	if req.url.Scheme != "https" || req.url.Host != "other.example.com" {
		t.Fatalf("url = %q", req.url)
	}
}

func TestResolveRedirect303SwitchesToGet(t *testing.T) {
	req := NewRequest().Post("http://example.com/submit", []byte("payload"))
	if !resolveRedirect(req, 303, "/done") {
		t.Fatalf("303 must resolve")
	}
	if req.method != "GET" || req.body != nil {
		t.Fatalf("303 must become a bodyless GET, got %s with %d body bytes", req.method, len(req.body))
	}
}

func TestResolveRedirect307KeepsBody(t *testing.T) {
	req := NewRequest().Post("http://example.com/submit", []byte("payload"))
	if !resolveRedirect(req, 307, "/retry") {
		t.Fatalf("307 must resolve")
	}
	if req.method != "POST" || string(req.body) != "payload" {
		t.Fatalf("307 must re-send method and body")
	}
}

func TestResolveRedirectRejectsOddSchemes(t *testing.T) {
	req := NewRequest().Get("http://example.com/")
	if resolveRedirect(req, 302, "ftp://example.com/file") {
		t.Fatalf("non-http scheme must be rejected")
	}
	if resolveRedirect(req, 302, "") {
		t.Fatalf("empty location must be rejected")
	}
}
