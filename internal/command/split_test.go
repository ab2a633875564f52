package command

import (
	"reflect"
	"testing"
)

func TestSplitJoinIdempotent(t *testing.T) {
	inputs := []string{
		"notepad.exe",
		"notepad.exe{N}calc.exe",
		"  notepad.exe {N}{N}  calc.exe {N} ",
		"{N}W2{N}https://example.com{N}",
		"",
	}
	for _, raw := range inputs {
		first := Split(raw, DefaultDivider)
		again := Split(Join(first, DefaultDivider), DefaultDivider)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("split/join not idempotent for %q: %q vs %q", raw, first, again)
		}
		for _, c := range first {
			if c == "" {
				t.Fatalf("empty segment kept for %q", raw)
			}
		}
	}
}

func TestSplitCustomDividerAndComments(t *testing.T) {
	got := Split("a.exe || {!launch the second one!} b.exe ||", "||")
	want := []string{"a.exe", "b.exe"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split = %q, want %q", got, want)
	}
}

func TestSplitAll(t *testing.T) {
	got := SplitAll([]string{"a{N}b", " ", "c"}, "")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitAll = %q, want %q", got, want)
	}
}

func TestFields(t *testing.T) {
	cases := map[string][]string{
		`-a "C:\Tools\thing.exe"`:          {"-a", `C:\Tools\thing.exe`},
		`  one   two `:                     {"one", "two"},
		`-sm "C:\My Menus\work.qcm" extra`: {"-sm", `C:\My Menus\work.qcm`, "extra"},
		`say ""`:                           {"say", ""},
		`half"quoted arg"`:                 {"halfquoted arg"},
		"":                                 nil,
	}
	for in, want := range cases {
		if got := Fields(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("Fields(%q) = %q, want %q", in, got, want)
		}
	}
}
