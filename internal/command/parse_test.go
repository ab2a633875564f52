package command

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseRepeat(t *testing.T) {
	p := Parse("REP3 notepad.exe", false)
	if p.RepeatCount != 3 || p.Command != "notepad.exe" || p.IsSpecial() {
		t.Fatalf("unexpected parse: %+v", p)
	}
}

func TestParseWait(t *testing.T) {
	for _, in := range []string{"WAIT2.5", "w2.5", "  wait2.5  "} {
		p := Parse(in, false)
		if p.Special != KindWait || p.WaitSeconds != 2.5 {
			t.Fatalf("Parse(%q) = %+v", in, p)
		}
	}
	if got := Parse("W1", false).Wait().Seconds(); got != 1 {
		t.Fatalf("Wait() = %v", got)
	}
}

func TestWaitIsClampedToDurationRange(t *testing.T) {
	cases := []struct {
		secs float64
		want time.Duration
	}{
		{-1, 0},
		{0, 0},
		{0.25, 250 * time.Millisecond},
		{1e12, time.Duration(maxWaitSeconds) * time.Second},
		{1e300, time.Duration(maxWaitSeconds) * time.Second},
	}
	for _, tc := range cases {
		if got := (Parsed{WaitSeconds: tc.secs}).Wait(); got != tc.want {
			t.Errorf("Wait(%v) = %v, want %v", tc.secs, got, tc.want)
		}
	}
	if got := Parse("WAIT9000000000", false).Wait(); got <= 0 {
		t.Fatalf("long wait overflowed: %v", got)
	}
}

func TestParseMalformedNumbersDegradeToLiteral(t *testing.T) {
	cases := []string{
		"REP0 notepad.exe",
		"REP99999999999999999999999 notepad.exe",
		"WAIT2.5.1",
		"WAITx",
		"WAIT99999999999999999999",
	}
	for _, in := range cases {
		p := Parse(in, false)
		if p.IsSpecial() || p.RepeatCount != 1 || p.Command != in {
			t.Fatalf("Parse(%q) = %+v, want literal", in, p)
		}
	}
}

func TestParseDirectives(t *testing.T) {
	cases := []struct {
		in      string
		kind    Kind
		target  string
		command string
	}{
		{"chk", KindCustomHotkeys, "", "chk"},
		{"EDITOR", KindOpenEditor, "", "EDITOR"},
		{"Win_Casc", KindWindowCommand, WinCascade, WinCascade},
		{"  win_tilev ", KindWindowCommand, WinTileV, WinTileV},
		{`C:\Projects^`, KindChangeFolder, `C:\Projects`, `C:\Projects`},
		{`  C:\Projects  ^ `, KindChangeFolder, `C:\Projects`, `C:\Projects`},
		{"killproc notepad.exe", KindKillProcess, "notepad.exe", "notepad.exe"},
		{"KILLPROC", KindKillProcess, "", ""},
		{"notepad.exe", KindNone, "", "notepad.exe"},
		{"win_casc now", KindNone, "", "win_casc now"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			p := Parse(tc.in, false)
			if p.Special != tc.kind || p.Target != tc.target || p.Command != tc.command {
				t.Fatalf("Parse(%q) = %+v", tc.in, p)
			}
		})
	}
}

func TestParseCopyTo(t *testing.T) {
	cases := []struct {
		in              string
		move, overwrite bool
	}{
		{`copyto D:\Backup`, false, false},
		{`copyto* D:\Backup`, true, false},
		{`copyto^ D:\Backup`, false, true},
		{`copyto*^ D:\Backup`, true, true},
		{`COPYTO^* "D:\Backup"`, true, true},
	}
	for _, tc := range cases {
		p := Parse(tc.in, false)
		if p.Special != KindCopyTo || p.Target != `D:\Backup` || p.Move != tc.move || p.Overwrite != tc.overwrite {
			t.Fatalf("Parse(%q) = %+v", tc.in, p)
		}
	}
}

func TestParseVerbAndStyle(t *testing.T) {
	p := Parse("RUNAS RUN_MAX cmd.exe /k", false)
	if p.Verb != VerbRunAs || p.WindowStyle != StyleMaximized || p.Command != "cmd.exe /k" {
		t.Fatalf("unexpected parse: %+v", p)
	}

	p = Parse("run_min notepad.exe", true)
	if p.Verb != VerbRunAs || p.WindowStyle != StyleMinimized || p.Command != "notepad.exe" {
		t.Fatalf("forced elevation not applied: %+v", p)
	}

	p = Parse("REP2 RUNAS notepad.exe", false)
	if p.RepeatCount != 2 || p.Verb != VerbRunAs || p.Command != "notepad.exe" {
		t.Fatalf("prefixes did not combine: %+v", p)
	}

	p = Parse("REP0 notepad.exe", true)
	if p.Verb != VerbRunAs {
		t.Fatalf("literal fallback lost forced elevation: %+v", p)
	}
}

type fakeClips map[int]string

func (f fakeClips) Clip(slot int) (string, error) {
	if v, ok := f[slot]; ok {
		return v, nil
	}
	return "", errors.New("empty slot")
}

func TestParseClipPlaceholders(t *testing.T) {
	ps := Parser{Clips: fakeClips{ClipLive: "https://example.com", 2: "report.txt"}}

	p := ps.Parse("{clip}", false)
	if p.Command != "https://example.com" || !reflect.DeepEqual(p.Clips, []int{ClipLive}) {
		t.Fatalf("unexpected parse: %+v", p)
	}

	p = ps.Parse("notepad.exe {CLIP2} {clip5}", false)
	if p.Command != "notepad.exe report.txt" || !reflect.DeepEqual(p.Clips, []int{2, 5}) {
		t.Fatalf("unexpected parse: %+v", p)
	}

	p = Parse("notepad.exe {clip}", false)
	if p.Command != "notepad.exe" {
		t.Fatalf("placeholder without source not removed: %+v", p)
	}
}
