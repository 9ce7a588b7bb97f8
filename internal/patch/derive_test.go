package patch

import (
	"errors"
	"strings"
	"testing"
)

func TestComputeReplacements(t *testing.T) {
	t.Run("Repeated chunks resolve to successive occurrences", func(t *testing.T) {
		lines := []string{"setup()", "check()", "teardown()", "setup()", "check()", "teardown()"}
		chunks := []Chunk{
			{OldLines: []string{"check()"}, NewLines: []string{"verify()"}},
			{OldLines: []string{"check()"}, NewLines: []string{"audit()"}},
		}

		reps, err := computeReplacements(lines, "test.go", chunks)
		if err != nil {
			t.Fatalf("computeReplacements failed: %v", err)
		}
		if len(reps) != 2 {
			t.Fatalf("Expected 2 replacements, got %d", len(reps))
		}
		if reps[0].StartIdx != 1 {
			t.Errorf("Expected first replacement at index 1, got %d", reps[0].StartIdx)
		}
		if reps[1].StartIdx != 4 {
			t.Errorf("Expected second replacement at index 4, got %d", reps[1].StartIdx)
		}
	})

	t.Run("Context hint repositions without consuming lines", func(t *testing.T) {
		lines := []string{"def first():", "    pass", "def second():", "    pass"}
		chunks := []Chunk{
			{
				Context:  "def second():",
				OldLines: []string{"def second():", "    pass"},
				NewLines: []string{"def second():", "    return 2"},
			},
		}

		reps, err := computeReplacements(lines, "funcs.py", chunks)
		if err != nil {
			t.Fatalf("computeReplacements failed: %v", err)
		}
		if reps[0].StartIdx != 2 {
			t.Errorf("Expected replacement at index 2, got %d", reps[0].StartIdx)
		}
		if reps[0].OldLen != 2 {
			t.Errorf("Expected old length 2, got %d", reps[0].OldLen)
		}
	})

	t.Run("Pure insertion lands before trailing blank line", func(t *testing.T) {
		lines := []string{"line1", "line2", ""}
		chunks := []Chunk{
			{NewLines: []string{"appended"}},
		}

		reps, err := computeReplacements(lines, "tail.txt", chunks)
		if err != nil {
			t.Fatalf("computeReplacements failed: %v", err)
		}
		if reps[0].StartIdx != 2 {
			t.Errorf("Expected insertion at index 2, got %d", reps[0].StartIdx)
		}
		if reps[0].OldLen != 0 {
			t.Errorf("Expected old length 0, got %d", reps[0].OldLen)
		}
	})

	t.Run("Pure insertion at end without trailing blank", func(t *testing.T) {
		lines := []string{"line1", "line2"}
		chunks := []Chunk{
			{NewLines: []string{"appended"}},
		}

		reps, err := computeReplacements(lines, "tail.txt", chunks)
		if err != nil {
			t.Fatalf("computeReplacements failed: %v", err)
		}
		if reps[0].StartIdx != 2 {
			t.Errorf("Expected insertion at index 2, got %d", reps[0].StartIdx)
		}
	})

	t.Run("Dangling trailing blank is retried on both sides", func(t *testing.T) {
		lines := []string{"keep", "change me"}
		chunks := []Chunk{
			{
				OldLines: []string{"change me", ""},
				NewLines: []string{"changed", ""},
			},
		}

		reps, err := computeReplacements(lines, "blank.txt", chunks)
		if err != nil {
			t.Fatalf("computeReplacements failed: %v", err)
		}
		if reps[0].StartIdx != 1 || reps[0].OldLen != 1 {
			t.Errorf("Unexpected replacement: %+v", reps[0])
		}
		if !equalLines(reps[0].NewSegment, []string{"changed"}) {
			t.Errorf("Expected trailing blank dropped from new segment, got %q", reps[0].NewSegment)
		}
	})

	t.Run("Missing context reports hint and file", func(t *testing.T) {
		lines := []string{"line1"}
		chunks := []Chunk{
			{Context: "nonexistent context", OldLines: []string{"line1"}, NewLines: []string{"line2"}},
		}

		_, err := computeReplacements(lines, "ctx.txt", chunks)
		var ctxErr *ContextNotFoundError
		if !errors.As(err, &ctxErr) {
			t.Fatalf("Expected ContextNotFoundError, got %v", err)
		}
		if !strings.Contains(err.Error(), "nonexistent context") || !strings.Contains(err.Error(), "ctx.txt") {
			t.Errorf("Unexpected error message: %v", err)
		}
	})

	t.Run("Missing lines report the expected lines", func(t *testing.T) {
		lines := []string{"line1"}
		chunks := []Chunk{
			{OldLines: []string{"this does not exist"}, NewLines: []string{"replacement"}},
		}

		_, err := computeReplacements(lines, "lines.txt", chunks)
		var linesErr *LinesNotFoundError
		if !errors.As(err, &linesErr) {
			t.Fatalf("Expected LinesNotFoundError, got %v", err)
		}
		if !strings.Contains(err.Error(), "this does not exist") {
			t.Errorf("Unexpected error message: %v", err)
		}
	})
}

func TestApplyReplacements(t *testing.T) {
	t.Run("Earlier indices survive later growth", func(t *testing.T) {
		lines := []string{"one", "two", "three", "four"}
		reps := []Replacement{
			{StartIdx: 0, OldLen: 1, NewSegment: []string{"1a", "1b"}},
			{StartIdx: 2, OldLen: 1, NewSegment: []string{"3x"}},
		}

		got := applyReplacements(lines, reps)
		want := []string{"1a", "1b", "two", "3x", "four"}
		if !equalLines(got, want) {
			t.Errorf("applyReplacements = %q, want %q", got, want)
		}
	})

	t.Run("Reverse order keeps original indices valid", func(t *testing.T) {
		lines := []string{"a", "b", "c", "d", "e", "f"}
		reps := []Replacement{
			{StartIdx: 0, OldLen: 1, NewSegment: []string{"A1", "A2"}},
			{StartIdx: 2, OldLen: 2, NewSegment: []string{"C"}},
			{StartIdx: 5, OldLen: 1, NewSegment: []string{"F1", "F2", "F3"}},
		}

		got := applyReplacements(lines, reps)
		want := []string{"A1", "A2", "b", "C", "e", "F1", "F2", "F3"}
		if !equalLines(got, want) {
			t.Errorf("applyReplacements = %q, want %q", got, want)
		}

		// The same replacements spliced front to back corrupt the later
		// indices: the first splice grows the prefix by one, so index 2
		// no longer names the "c" line. This is what reverse application
		// protects against.
		ascending := make([]string, len(lines))
		copy(ascending, lines)
		for _, r := range reps {
			next := append([]string{}, ascending[:r.StartIdx]...)
			next = append(next, r.NewSegment...)
			next = append(next, ascending[r.StartIdx+r.OldLen:]...)
			ascending = next
		}
		if equalLines(ascending, want) {
			t.Fatal("Ascending-order application unexpectedly produced the correct result")
		}
	})

	t.Run("Input lines are not mutated", func(t *testing.T) {
		lines := []string{"a", "b"}
		reps := []Replacement{
			{StartIdx: 0, OldLen: 2, NewSegment: []string{"c"}},
		}

		_ = applyReplacements(lines, reps)
		if !equalLines(lines, []string{"a", "b"}) {
			t.Errorf("Input mutated: %q", lines)
		}
	})

	t.Run("Deletion only", func(t *testing.T) {
		lines := []string{"a", "b", "c"}
		reps := []Replacement{
			{StartIdx: 1, OldLen: 1, NewSegment: nil},
		}

		got := applyReplacements(lines, reps)
		if !equalLines(got, []string{"a", "c"}) {
			t.Errorf("applyReplacements = %q", got)
		}
	})
}

func TestDeriveNewContents(t *testing.T) {
	t.Run("Result always ends with a newline", func(t *testing.T) {
		chunks := []Chunk{
			{OldLines: []string{"old line"}, NewLines: []string{"new line"}},
		}

		got, err := deriveNewContents("file.txt", "old line\n", chunks)
		if err != nil {
			t.Fatalf("deriveNewContents failed: %v", err)
		}
		if got != "new line\n" {
			t.Errorf("deriveNewContents = %q, want %q", got, "new line\n")
		}
	})

	t.Run("Source without trailing newline gains one", func(t *testing.T) {
		chunks := []Chunk{
			{OldLines: []string{"b"}, NewLines: []string{"B"}},
		}

		got, err := deriveNewContents("file.txt", "a\nb", chunks)
		if err != nil {
			t.Fatalf("deriveNewContents failed: %v", err)
		}
		if got != "a\nB\n" {
			t.Errorf("deriveNewContents = %q, want %q", got, "a\nB\n")
		}
	})

	t.Run("Context hint keeps surrounding lines", func(t *testing.T) {
		original := "def main():\n    print('Hello')\n    return 0\n"
		chunks := []Chunk{
			{
				Context:  "def main():",
				OldLines: []string{"    print('Hello')"},
				NewLines: []string{"    print('Hello, World!')"},
			},
		}

		got, err := deriveNewContents("main.py", original, chunks)
		if err != nil {
			t.Fatalf("deriveNewContents failed: %v", err)
		}
		want := "def main():\n    print('Hello, World!')\n    return 0\n"
		if got != want {
			t.Errorf("deriveNewContents = %q, want %q", got, want)
		}
	})

	t.Run("Chunk with identical old and new lines is a no-op", func(t *testing.T) {
		original := "one\ntwo\nthree\n"
		chunks := []Chunk{
			{OldLines: []string{"two"}, NewLines: []string{"two"}},
		}

		got, err := deriveNewContents("same.txt", original, chunks)
		if err != nil {
			t.Fatalf("deriveNewContents failed: %v", err)
		}
		if got != original {
			t.Errorf("deriveNewContents = %q, want unchanged %q", got, original)
		}
	})
}
