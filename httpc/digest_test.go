package httpc

import (
	"strings"
	"testing"
)

const challenge = `Digest realm="testrealm@host.com", qop="auth,auth-int", ` +
	`nonce="dcd98b7102dd2f0e8b11d0f600bfb0c093", opaque="5ccc069c403ebaf9f0171e9517f40e41"`

func TestParseDigestChallenge(t *testing.T) {
	ch, ok := parseDigestChallenge(challenge)
	if !ok {
		t.Fatalf("challenge not recognized")
	}
	if ch.realm != "testrealm@host.com" {
		t.Fatalf("realm = %q", ch.realm)
	}
	if ch.nonce != "dcd98b7102dd2f0e8b11d0f600bfb0c093" {
		t.Fatalf("nonce = %q", ch.nonce)
	}
	if ch.opaque != "5ccc069c403ebaf9f0171e9517f40e41" {
		t.Fatalf("opaque = %q", ch.opaque)
	}
	if !hasAuthQop(ch.qop) {
		t.Fatalf("qop %q should offer auth", ch.qop)
	}
}

func TestParseDigestChallengeRejectsOtherSchemes(t *testing.T) {
	if _, ok := parseDigestChallenge(`Basic realm="x"`); ok {
		t.Fatalf("basic challenge must not parse as digest")
	}
}

// Known-answer test from RFC 2617 §3.5.
func TestDigestAnswer(t *testing.T) {
	ch, ok := parseDigestChallenge(challenge)
	if !ok {
		t.Fatalf("challenge not recognized")
	}
	authz, err := ch.answerWith("Mufasa", "Circle Of Life", "GET", "/dir/index.html", "0a4f113b")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !strings.Contains(authz, `response="6629fae49393a05397450978507c4ef1"`) {
		t.Fatalf("wrong response hash in %q", authz)
	}
	for _, want := range []string{
		`username="Mufasa"`,
		`realm="testrealm@host.com"`,
		`uri="/dir/index.html"`,
		`qop=auth`,
		`nc=00000001`,
		`cnonce="0a4f113b"`,
		`opaque="5ccc069c403ebaf9f0171e9517f40e41"`,
	} {
		if !strings.Contains(authz, want) {
			t.Fatalf("missing %q in %q", want, authz)
		}
	}
}

func TestDigestAnswerUnknownAlgorithm(t *testing.T) {
	ch := digestChallenge{realm: "r", nonce: "n", algorithm: "MD42"}
	if _, err := ch.answer("u", "p", "GET", "/"); err == nil {
		t.Fatalf("unknown algorithm must fail")
	}
}
