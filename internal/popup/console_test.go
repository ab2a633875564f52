package popup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/example/quickcliq/internal/config"
	"github.com/example/quickcliq/internal/menu"
)

type step struct {
	pick string
	err  error
}

// scripted answers each prompt by label.
type scripted struct {
	t       *testing.T
	steps   []step
	prompts []string
}

func (s *scripted) find(_ context.Context, labels []string, prompt string) (int, error) {
	s.t.Helper()
	s.prompts = append(s.prompts, prompt)
	if len(s.steps) == 0 {
		s.t.Fatalf("unexpected prompt %q with %q", prompt, labels)
	}
	next := s.steps[0]
	s.steps = s.steps[1:]
	if next.err != nil {
		return 0, next.err
	}
	for i, l := range labels {
		if l == next.pick {
			return i, nil
		}
	}
	s.t.Fatalf("label %q not offered in %q", next.pick, labels)
	return 0, nil
}

func testTree() *menu.Tree {
	cfg := &config.MenuConfig{
		Name:      "main",
		TextColor: config.Inherit,
		BgColor:   config.Inherit,
		Items: []*config.MenuItem{
			{ID: 1, Name: "Notepad", Commands: []string{"notepad.exe"}, TextColor: -1, BgColor: -1},
			{ID: 2, IsSeparator: true},
			{ID: 3, Name: "Tools", IsMenu: true, TextColor: -1, BgColor: -1, Children: []*config.MenuItem{
				{ID: 4, Name: "Calc", Commands: []string{"calc.exe"}, TextColor: -1, BgColor: -1},
				{ID: 5, Name: "Broken", TextColor: -1, BgColor: -1},
			}},
		},
	}
	return menu.NewBuilder(menu.Params{Base: menu.DefaultAppearance()}).Build(cfg, nil)
}

func TestShowDescendsIntoSubmenus(t *testing.T) {
	s := &scripted{t: t, steps: []step{{pick: "Tools >"}, {pick: ".."}, {pick: "Tools >"}, {pick: "Calc"}}}
	c := &Console{Finder: s.find}

	res, err := c.Show(context.Background(), testTree(), menu.Point{})
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if res == nil || res.Uid != "4" {
		t.Fatalf("result = %+v", res)
	}
	if src, ok := res.Tag.(*config.MenuItem); !ok || src.Name != "Calc" {
		t.Fatalf("tag = %#v", res.Tag)
	}
	if s.prompts[1] != "Tools> " {
		t.Fatalf("prompts = %q", s.prompts)
	}
}

func TestAbortReturnsToParentThenDismisses(t *testing.T) {
	s := &scripted{t: t, steps: []step{
		{pick: "Tools >"},
		{err: fuzzyfinder.ErrAbort},
		{err: fuzzyfinder.ErrAbort},
	}}
	c := &Console{Finder: s.find}

	res, err := c.Show(context.Background(), testTree(), menu.Point{})
	if err != nil || res != nil {
		t.Fatalf("Show = %+v, %v", res, err)
	}
	if len(s.prompts) != 3 {
		t.Fatalf("prompts = %q", s.prompts)
	}
}

func TestFinderErrorIsReturned(t *testing.T) {
	boom := errors.New("no terminal")
	s := &scripted{t: t, steps: []step{{err: boom}}}
	c := &Console{Finder: s.find}
	if _, err := c.Show(context.Background(), testTree(), menu.Point{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestFlatListsPathsWithoutDisabled(t *testing.T) {
	var offered []string
	c := &Console{Flat: true, Finder: func(_ context.Context, labels []string, _ string) (int, error) {
		offered = labels
		return 1, nil
	}}
	res, err := c.Show(context.Background(), testTree(), menu.Point{})
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if len(offered) != 2 || offered[0] != "Notepad" || offered[1] != "Tools > Calc" {
		t.Fatalf("offered = %q", offered)
	}
	if res.Uid != "4" {
		t.Fatalf("result = %+v", res)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &Console{Finder: func(context.Context, []string, string) (int, error) {
		t.Fatalf("finder called with canceled context")
		return 0, nil
	}}
	if _, err := c.Show(ctx, testTree(), menu.Point{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestShowAttachesTerminalAroundFinder(t *testing.T) {
	var events []string
	c := &Console{
		Finder: func(_ context.Context, labels []string, _ string) (int, error) {
			events = append(events, "find")
			return 0, nil
		},
		Attach: func() (func(), error) {
			events = append(events, "attach")
			return func() { events = append(events, "release") }, nil
		},
	}
	res, err := c.Show(context.Background(), testTree(), menu.Point{})
	if err != nil || res == nil || res.Uid != "1" {
		t.Fatalf("Show = %+v, %v", res, err)
	}
	if strings.Join(events, ",") != "attach,find,release" {
		t.Fatalf("events = %q", events)
	}

	refused := errors.New("no console")
	c.Attach = func() (func(), error) { return nil, refused }
	if _, err := c.Show(context.Background(), testTree(), menu.Point{}); !errors.Is(err, refused) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewConsoleAttachesTerminal(t *testing.T) {
	c := NewConsole(false)
	if c.Attach == nil || c.Finder == nil {
		t.Fatalf("console without terminal hooks: %+v", c)
	}
}
