// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/heic2jpg/pkg/types"
)

// fakeTool implements magick.Tool. Each Convert call is recorded; the
// first failFirst[src] invocations for a source fail, later ones succeed
// and create the output file. A negative failFirst means every attempt
// for that source fails.
type fakeTool struct {
	failFirst map[string]int
	seen      map[string]int
	calls     [][]string
}

func newFakeTool(failFirst map[string]int) *fakeTool {
	return &fakeTool{
		failFirst: failFirst,
		seen:      map[string]int{},
	}
}

func (f *fakeTool) Name() string                 { return "magick" }
func (f *fakeTool) Available() bool              { return true }
func (f *fakeTool) ListFormats() (string, error) { return "HEIC rw-", nil }

func (f *fakeTool) Convert(args ...string) error {
	f.calls = append(f.calls, args)
	src := strings.TrimPrefix(args[0], "HEIC:")
	dst := args[len(args)-1]

	f.seen[src]++
	limit := f.failFirst[src]
	if limit < 0 || f.seen[src] <= limit {
		return errors.New("magick: no decode delegate: " + src)
	}
	if err := os.WriteFile(dst, []byte("jpeg"), 0o644); err != nil {
		return err
	}
	return nil
}

// callsFor counts Convert invocations whose source matches path.
func (f *fakeTool) callsFor(path string) int {
	return f.seen[path]
}

func setupDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("heic"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func runCfg(dir string, deleteOriginals bool) types.ConvertConfig {
	return types.ConvertConfig{
		Directory:       dir,
		DeleteOriginals: deleteOriginals,
		Quality:         90,
	}
}

func TestEnumerateTargets(t *testing.T) {
	t.Run("matches extension case-insensitively", func(t *testing.T) {
		dir := setupDir(t, "a.heic", "b.heic", "c.HEIC", "notes.txt")

		targets, err := EnumerateTargets(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(targets) != 3 {
			t.Fatalf("found %d targets, want 3", len(targets))
		}
		for _, target := range targets {
			if strings.HasSuffix(target.Path, "notes.txt") {
				t.Errorf("non-candidate enumerated: %s", target.Path)
			}
		}
	})

	t.Run("does not descend into subdirectories", func(t *testing.T) {
		dir := setupDir(t, "a.heic")
		if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "nested", "b.heic"), []byte("heic"), 0o644); err != nil {
			t.Fatal(err)
		}

		targets, err := EnumerateTargets(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(targets) != 1 {
			t.Errorf("found %d targets, want 1", len(targets))
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := EnumerateTargets(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrInvalidDirectory) {
			t.Errorf("error should wrap ErrInvalidDirectory, got: %v", err)
		}
	})

	t.Run("path is a file, not a directory", func(t *testing.T) {
		dir := setupDir(t, "a.heic")
		_, err := EnumerateTargets(filepath.Join(dir, "a.heic"))
		if !errors.Is(err, ErrInvalidDirectory) {
			t.Errorf("error should wrap ErrInvalidDirectory, got: %v", err)
		}
	})
}

func TestRun_EmptyDirectory(t *testing.T) {
	dir := setupDir(t, "notes.txt")
	tool := newFakeTool(nil)

	summary, err := NewRunner(tool, nil).Run(runCfg(dir, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Found != 0 || summary.Converted != 0 || summary.Failed != 0 ||
		summary.Deleted != 0 || summary.DeleteFailed != 0 {
		t.Errorf("expected all-zero summary, got %+v", summary)
	}
	if len(tool.calls) != 0 {
		t.Errorf("tool invoked %d times for empty directory", len(tool.calls))
	}
}

func TestRun_AllSucceedFirstStrategy(t *testing.T) {
	dir := setupDir(t, "a.heic", "b.heic", "c.HEIC", "notes.txt")
	tool := newFakeTool(nil)

	summary, err := NewRunner(tool, nil).Run(runCfg(dir, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Found != 3 || summary.Converted != 3 || summary.Failed != 0 || summary.Deleted != 0 {
		t.Errorf("summary = %+v, want found=3 converted=3 failed=0 deleted=0", summary)
	}
	if len(summary.Outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(summary.Outcomes))
	}
	for _, o := range summary.Outcomes {
		if o.Status != types.ConversionDone {
			t.Errorf("%s: status = %q, want converted", o.Source, o.Status)
		}
		if o.Strategy != "direct" {
			t.Errorf("%s: strategy = %q, want direct", o.Source, o.Strategy)
		}
		if o.Delete != types.DeleteNotAttempted {
			t.Errorf("%s: delete = %q, want not-attempted", o.Source, o.Delete)
		}
		if tool.callsFor(o.Source) != 1 {
			t.Errorf("%s: %d invocations, want 1 (short-circuit)", o.Source, tool.callsFor(o.Source))
		}
	}

	// Originals and the unrelated file stay put.
	for _, name := range []string{"a.heic", "b.heic", "c.HEIC", "notes.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should be untouched: %v", name, err)
		}
	}
}

func TestRun_StrategyFallback(t *testing.T) {
	dir := setupDir(t, "a.heic", "b.heic")
	aPath := filepath.Join(dir, "a.heic")
	bPath := filepath.Join(dir, "b.heic")

	// a succeeds on the third shape; b exhausts all three.
	tool := newFakeTool(map[string]int{aPath: 2, bPath: -1})

	summary, err := NewRunner(tool, nil).Run(runCfg(dir, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Converted != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want converted=1 failed=1", summary)
	}

	var aOut, bOut Outcome
	for _, o := range summary.Outcomes {
		switch o.Source {
		case aPath:
			aOut = o
		case bPath:
			bOut = o
		}
	}

	if aOut.Status != types.ConversionDone || aOut.Strategy != "auto-orient" {
		t.Errorf("a outcome = %+v, want converted via auto-orient", aOut)
	}
	if tool.callsFor(aPath) != 3 {
		t.Errorf("a invoked %d times, want 3", tool.callsFor(aPath))
	}
	if _, err := os.Stat(filepath.Join(dir, "a.jpg")); err != nil {
		t.Errorf("a.jpg should exist: %v", err)
	}
	if _, err := os.Stat(aPath); err != nil {
		t.Errorf("a.heic should remain with delete disabled: %v", err)
	}

	if bOut.Status != types.ConversionFailed {
		t.Errorf("b status = %q, want failed", bOut.Status)
	}
	if !strings.Contains(bOut.Err, "no decode delegate") {
		t.Errorf("b outcome should carry the last error text, got %q", bOut.Err)
	}
	if tool.callsFor(bPath) != 3 {
		t.Errorf("b invoked %d times, want 3", tool.callsFor(bPath))
	}
	if _, err := os.Stat(filepath.Join(dir, "b.jpg")); err == nil {
		t.Error("b.jpg should not exist")
	}
	if _, err := os.Stat(bPath); err != nil {
		t.Errorf("failed original must be left untouched: %v", err)
	}
}

func TestRun_DeleteOriginals(t *testing.T) {
	dir := setupDir(t, "a.heic", "b.heic")
	bPath := filepath.Join(dir, "b.heic")
	tool := newFakeTool(map[string]int{bPath: -1})

	summary, err := NewRunner(tool, nil).Run(runCfg(dir, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Converted != 1 || summary.Failed != 1 || summary.Deleted != 1 || summary.DeleteFailed != 0 {
		t.Errorf("summary = %+v, want converted=1 failed=1 deleted=1", summary)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.heic")); !os.IsNotExist(err) {
		t.Error("a.heic should have been deleted")
	}
	// Deletion is never attempted for a failed target.
	if _, err := os.Stat(bPath); err != nil {
		t.Errorf("b.heic should remain: %v", err)
	}
}

func TestRun_DeleteFailureKeepsConvertedOutcome(t *testing.T) {
	dir := setupDir(t, "a.heic")
	tool := newFakeTool(nil)

	runner := NewRunner(tool, nil)
	runner.remove = func(string) error {
		return errors.New("permission denied")
	}

	summary, err := runner.Run(runCfg(dir, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Converted != 1 || summary.Deleted != 0 || summary.DeleteFailed != 1 {
		t.Errorf("summary = %+v, want converted=1 deleted=0 delete_failed=1", summary)
	}

	o := summary.Outcomes[0]
	if o.Status != types.ConversionDone {
		t.Errorf("status = %q, delete failure must not downgrade a conversion", o.Status)
	}
	if o.Delete != types.DeleteFailed {
		t.Errorf("delete = %q, want delete-failed", o.Delete)
	}
	if !strings.Contains(o.DeleteErr, "permission denied") {
		t.Errorf("delete error text missing, got %q", o.DeleteErr)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.jpg")); err != nil {
		t.Errorf("a.jpg should exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.heic")); err != nil {
		t.Errorf("a.heic should still exist: %v", err)
	}
}

func TestRun_ProgressCallback(t *testing.T) {
	dir := setupDir(t, "a.heic", "b.heic")
	tool := newFakeTool(nil)

	type tick struct {
		done, total int
		source      string
	}
	var ticks []tick
	runner := NewRunner(tool, func(done, total int, o Outcome) {
		ticks = append(ticks, tick{done, total, o.Source})
	})

	if _, err := runner.Run(runCfg(dir, false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ticks) != 2 {
		t.Fatalf("progress called %d times, want 2", len(ticks))
	}
	for i, tk := range ticks {
		if tk.done != i+1 || tk.total != 2 {
			t.Errorf("tick %d = %+v, want done=%d total=2", i, tk, i+1)
		}
	}
}

func TestStrategyArgShapes(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"direct", []string{"in.heic", "-quality", "85", "out.jpg"}},
		{"explicit-format", []string{"HEIC:in.heic", "out.jpg"}},
		{"auto-orient", []string{"in.heic", "-auto-orient", "-quality", "85", "out.jpg"}},
	}
	if len(Strategies) != len(tests) {
		t.Fatalf("got %d strategies, want %d", len(Strategies), len(tests))
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Strategies[i]
			if s.Name != tt.name {
				t.Errorf("strategy %d name = %q, want %q", i, s.Name, tt.name)
			}
			got := s.Args("in.heic", "out.jpg", 85)
			if len(got) != len(tt.want) {
				t.Fatalf("args = %v, want %v", got, tt.want)
			}
			for j := range got {
				if got[j] != tt.want[j] {
					t.Errorf("arg %d = %q, want %q", j, got[j], tt.want[j])
				}
			}
		})
	}
}
