package scraper

import "testing"

func TestBlocklist(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		bl := NewBlocklist([]string{"blocked.example"})
		if bl == nil {
			t.Fatalf("expected blocklist to be created")
		}
		if !bl.IsBlocked("blocked.example") {
			t.Fatalf("expected blocked.example to be blocked")
		}
		if !bl.IsBlocked("www.blocked.example") {
			t.Fatalf("www prefix should not defeat the blocklist")
		}
		if bl.IsBlocked("sub.blocked.example") {
			t.Fatalf("did not expect subdomains to match exact entry")
		}
	})

	t.Run("wildcard suffix", func(t *testing.T) {
		bl := NewBlocklist([]string{"*.ru"})
		cases := []struct {
			host    string
			blocked bool
		}{
			{"example.ru", true},
			{"sub.domain.ru", true},
			{"ru", true},
			{"example.com", false},
		}
		for _, tc := range cases {
			if got := bl.IsBlocked(tc.host); got != tc.blocked {
				t.Fatalf("host %q blocked=%v, want %v", tc.host, got, tc.blocked)
			}
		}
	})

	t.Run("nil blocklist", func(t *testing.T) {
		var bl *Blocklist
		if bl.IsBlocked("anything") {
			t.Fatalf("nil blocklist should never block")
		}
	})

	t.Run("empty patterns yield nil", func(t *testing.T) {
		if bl := NewBlocklist([]string{"", "  "}); bl != nil {
			t.Fatalf("expected nil blocklist for empty patterns")
		}
	})
}

func TestNormalizeDomain(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://www.acme.example/contact", "acme.example"},
		{"WWW.Acme.Example", "acme.example"},
		{"acme.example:8080", "acme.example"},
		{"acme.example", "acme.example"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeDomain(tc.in); got != tc.want {
			t.Fatalf("NormalizeDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSameDomain(t *testing.T) {
	if !SameDomain("acme.example", "https://www.acme.example/about") {
		t.Fatalf("www variant should match")
	}
	if !SameDomain("acme.example", "https://shop.acme.example/") {
		t.Fatalf("subdomain should match")
	}
	if SameDomain("acme.example", "https://evil.example/acme.example") {
		t.Fatalf("foreign host must not match")
	}
}
