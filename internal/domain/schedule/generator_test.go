package schedule

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestGenerate_AllFrequencies(t *testing.T) {
	firsts := []Clock{{0, 0}, {8, 0}, {7, 30}, {23, 59}, {13, 5}}

	for _, first := range firsts {
		for n := MinFrequency; n <= MaxFrequency; n++ {
			got := Generate(first, n)
			if len(got) != n {
				t.Fatalf("first=%s n=%d: expected %d times, got %d", first, n, n, len(got))
			}
			if got[0] != first {
				t.Fatalf("first=%s n=%d: expected first entry %s, got %s", first, n, first, got[0])
			}
			interval := 24 / n
			for i := 1; i < n; i++ {
				want := Clock{Hour: (got[i-1].Hour + interval) % 24, Minute: first.Minute}
				if got[i] != want {
					t.Fatalf("first=%s n=%d i=%d: expected %s, got %s", first, n, i, want, got[i])
				}
			}
		}
	}
}

func TestGenerate_NonDivisibleFrequency(t *testing.T) {
	// 24/5 = 4 => 08:00, 12:00, 16:00, 20:00, 00:00 (hueco de 8h al final)
	got := Generate(Clock{8, 15}, 5)
	want := []string{"08:15", "12:15", "16:15", "20:15", "00:15"}
	for i, w := range want {
		if got[i].String() != w {
			t.Fatalf("index %d: expected %s, got %s", i, w, got[i])
		}
	}
}

func TestGenerate_OutOfRangeReturnsEmpty(t *testing.T) {
	if got := Generate(Clock{8, 0}, 0); len(got) != 0 {
		t.Fatalf("expected empty for n=0, got %v", got)
	}
	if got := Generate(Clock{8, 0}, 25); len(got) != 0 {
		t.Fatalf("expected empty for n=25, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(Clock{8, 0}, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(Clock{8, 0}, 0); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
	if err := Validate(Clock{8, 0}, 25); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
	if err := Validate(Clock{24, 0}, 2); !errors.Is(err, ErrInvalidClock) {
		t.Fatalf("expected ErrInvalidClock, got %v", err)
	}
}

func TestMatches(t *testing.T) {
	times := Generate(Clock{6, 0}, 3)
	if !Matches(Clock{6, 0}, 3, times) {
		t.Fatalf("expected generated times to match")
	}
	if Matches(Clock{6, 0}, 4, times) {
		t.Fatalf("expected mismatch on different frequency")
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]bool{
		"08:00": true,
		"8:05":  true,
		"23:59": true,
		"24:00": false,
		"12:60": false,
		"12:5":  false,
		"1200":  false,
		"":      false,
	}
	for in, ok := range cases {
		_, err := ParseClock(in)
		if ok && err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if !ok && err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func TestClock_JSON(t *testing.T) {
	b, err := json.Marshal([]Clock{{8, 0}, {20, 30}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `["08:00","20:30"]` {
		t.Fatalf("unexpected json %s", b)
	}

	var back []Clock
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[1] != (Clock{20, 30}) {
		t.Fatalf("unexpected value %v", back[1])
	}
}

func TestFormatAndParseList(t *testing.T) {
	times := Generate(Clock{9, 0}, 3)
	s := FormatList(times)
	if s != "09:00,17:00,01:00" {
		t.Fatalf("unexpected list %q", s)
	}
	back, err := ParseList(s)
	if err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if !Matches(Clock{9, 0}, 3, back) {
		t.Fatalf("round trip mismatch: %v", back)
	}
}
