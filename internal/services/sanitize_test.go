package services

import (
	"strings"
	"testing"
)

func newTestSanitizer() *Sanitizer {
	return NewSanitizer(NewContentFilter())
}

func TestSanitizeDropsUnsafeField(t *testing.T) {
	s := newTestSanitizer()
	sub := &Submission{BugOtherText: strptr("<script>alert(1)</script>")}

	res := s.Sanitize(sub)
	if res.Sanitized.BugOtherText != nil {
		t.Fatalf("unsafe field kept: %q", *res.Sanitized.BugOtherText)
	}
	if len(res.Issues) != 1 || !strings.HasPrefix(res.Issues[0], "bugOtherText: ") {
		t.Fatalf("issues = %v", res.Issues)
	}
	// The input submission is untouched.
	if sub.BugOtherText == nil {
		t.Fatalf("input submission mutated")
	}
}

func TestSanitizeTrimsAndStripsControl(t *testing.T) {
	s := newTestSanitizer()
	res := s.Sanitize(&Submission{Cpu: strptr("  Ryzen\x007 5800X\x1f  ")})
	if res.Sanitized.Cpu == nil || *res.Sanitized.Cpu != "Ryzen7 5800X" {
		t.Fatalf("cpu = %v", res.Sanitized.Cpu)
	}
	if len(res.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", res.Issues)
	}
}

func TestSanitizeNeverLengthens(t *testing.T) {
	s := newTestSanitizer()
	inputs := []string{"  padded  ", "plain", "\x01\x02x\x03"}
	for _, in := range inputs {
		res := s.Sanitize(&Submission{Gpu: strptr(in)})
		if res.Sanitized.Gpu == nil {
			continue
		}
		if len(*res.Sanitized.Gpu) > len(in) {
			t.Fatalf("sanitize lengthened %q to %q", in, *res.Sanitized.Gpu)
		}
	}
}

func TestSanitizeBugListInvalidJSON(t *testing.T) {
	s := newTestSanitizer()
	res := s.Sanitize(&Submission{CommonBugsExperienced: strptr("not json at all {")})
	if res.Sanitized.CommonBugsExperienced != nil {
		t.Fatalf("unparsable bug list kept: %v", *res.Sanitized.CommonBugsExperienced)
	}
	if len(res.Issues) != 1 || res.Issues[0] != "commonBugsExperienced: invalid JSON" {
		t.Fatalf("issues = %v", res.Issues)
	}
}

func TestSanitizeBugListFiltersElements(t *testing.T) {
	s := newTestSanitizer()
	res := s.Sanitize(&Submission{
		CommonBugsExperienced: strptr(`["Desync","<script>alert(1)</script>","Crashes"]`),
	})
	if res.Sanitized.CommonBugsExperienced == nil {
		t.Fatalf("bug list dropped entirely")
	}
	if got := *res.Sanitized.CommonBugsExperienced; got != `["Desync","Crashes"]` {
		t.Fatalf("bug list = %s", got)
	}
	if len(res.Issues) != 0 {
		t.Fatalf("element filtering raised issues: %v", res.Issues)
	}
}

func TestSanitizeBugListNonArrayPassthrough(t *testing.T) {
	s := newTestSanitizer()
	res := s.Sanitize(&Submission{CommonBugsExperienced: strptr(`"just a string"`)})
	if res.Sanitized.CommonBugsExperienced == nil || *res.Sanitized.CommonBugsExperienced != `"just a string"` {
		t.Fatalf("non-array JSON not passed through: %v", res.Sanitized.CommonBugsExperienced)
	}
}

func TestSanitizeNilFieldsUntouched(t *testing.T) {
	s := newTestSanitizer()
	res := s.Sanitize(&Submission{})
	if len(res.Issues) != 0 {
		t.Fatalf("empty submission produced issues: %v", res.Issues)
	}
	if res.Sanitized.Cpu != nil || res.Sanitized.CommonBugsExperienced != nil {
		t.Fatalf("nil fields were populated")
	}
}
