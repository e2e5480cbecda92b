package services

import (
	"strings"
	"testing"
)

func TestInspectSafeText(t *testing.T) {
	f := NewContentFilter()
	for _, text := range []string{
		"",
		"Ryzen 7 5800X",
		"The quest was great, especially the warehouse section.",
		"RTX 3080 12GB",
	} {
		if v := f.Inspect(text); !v.Safe {
			t.Fatalf("Inspect(%q) = unsafe (%s), want safe", text, v.Reason)
		}
	}
}

func TestInspectReasons(t *testing.T) {
	f := NewContentFilter()
	cases := []struct {
		text   string
		reason string
	}{
		{"this is shit", ReasonProfanity},
		{"SELECT password FROM users", ReasonSQLInjection},
		{"Robert'); DROP TABLE students", ReasonSQLInjection},
		{"name=admin'--", ReasonSQLInjection},
		// "script" is in the keyword rule, so a script tag trips the SQL
		// rule before the markup rules are reached.
		{"<script>alert(1)</script>", ReasonSQLInjection},
		{"click javascript:void(0)", ReasonMarkupInjection},
		{"<img onerror=alert(1)>", ReasonMarkupInjection},
		{"<iframe src=x>", ReasonMarkupInjection},
		{strings.Repeat("a", 10001), ReasonTooLong},
		{strings.Repeat("@#", 60), ReasonExcessiveSymbols},
	}
	for _, c := range cases {
		v := f.Inspect(c.text)
		if v.Safe {
			t.Fatalf("Inspect(%.40q) = safe, want %s", c.text, c.reason)
		}
		if v.Reason != c.reason {
			t.Fatalf("Inspect(%.40q) reason = %q, want %q", c.text, v.Reason, c.reason)
		}
	}
}

func TestInspectFirstMatchWins(t *testing.T) {
	f := NewContentFilter()
	// Contains both profanity and a SQL keyword; profanity is checked first.
	v := f.Inspect("shit, someone ran SELECT on the table")
	if v.Safe || v.Reason != ReasonProfanity {
		t.Fatalf("verdict = %+v, want unsafe with %s", v, ReasonProfanity)
	}
}

func TestInspectSymbolRatioNeedsLength(t *testing.T) {
	f := NewContentFilter()
	// Mostly symbols but short: the ratio heuristic only applies past the
	// minimum length.
	if v := f.Inspect("@#@#@#@#"); !v.Safe {
		t.Fatalf("short symbol text flagged: %+v", v)
	}
}

func TestInspectIsPure(t *testing.T) {
	f := NewContentFilter()
	text := "SELECT * FROM quests"
	first := f.Inspect(text)
	for i := 0; i < 3; i++ {
		if v := f.Inspect(text); v != first {
			t.Fatalf("verdict changed across calls: %+v vs %+v", v, first)
		}
	}
}
