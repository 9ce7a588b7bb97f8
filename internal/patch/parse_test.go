package patch

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Run("Add file", func(t *testing.T) {
		patchText := `*** Begin Patch
*** Add File: hello.txt
+Hello World
+This is a new file
+Line 3
*** End Patch`

		ops, err := Parse(patchText)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(ops) != 1 {
			t.Fatalf("Expected 1 operation, got %d", len(ops))
		}

		add, ok := ops[0].(*AddOp)
		if !ok {
			t.Fatalf("Expected *AddOp, got %T", ops[0])
		}
		if add.FilePath != "hello.txt" {
			t.Errorf("Expected path hello.txt, got %q", add.FilePath)
		}
		if add.Contents != "Hello World\nThis is a new file\nLine 3" {
			t.Errorf("Unexpected contents: %q", add.Contents)
		}
	})

	t.Run("Delete file", func(t *testing.T) {
		patchText := `*** Begin Patch
*** Delete File: old.txt
*** End Patch`

		ops, err := Parse(patchText)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		del, ok := ops[0].(*DeleteOp)
		if !ok {
			t.Fatalf("Expected *DeleteOp, got %T", ops[0])
		}
		if del.FilePath != "old.txt" {
			t.Errorf("Expected path old.txt, got %q", del.FilePath)
		}
	})

	t.Run("Update file with context chunk", func(t *testing.T) {
		patchText := `*** Begin Patch
*** Update File: main.py
@@ def main():
-    print('Hello')
+    print('Hello, World!')
 	unchanged
*** End Patch`

		ops, err := Parse(patchText)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		up, ok := ops[0].(*UpdateOp)
		if !ok {
			t.Fatalf("Expected *UpdateOp, got %T", ops[0])
		}
		if up.FilePath != "main.py" {
			t.Errorf("Expected path main.py, got %q", up.FilePath)
		}
		if len(up.Chunks) != 1 {
			t.Fatalf("Expected 1 chunk, got %d", len(up.Chunks))
		}

		chunk := up.Chunks[0]
		if chunk.Context != "def main():" {
			t.Errorf("Expected context 'def main():', got %q", chunk.Context)
		}
		wantOld := []string{"    print('Hello')", "\tunchanged"}
		wantNew := []string{"    print('Hello, World!')", "\tunchanged"}
		if !equalLines(chunk.OldLines, wantOld) {
			t.Errorf("Unexpected old lines: %q", chunk.OldLines)
		}
		if !equalLines(chunk.NewLines, wantNew) {
			t.Errorf("Unexpected new lines: %q", chunk.NewLines)
		}
	})

	t.Run("Update file with move directive", func(t *testing.T) {
		patchText := `*** Begin Patch
*** Update File: old_name.py
*** Move to: new_name.py
@@ class MyClass:
-    pass
+    def method(self):
+        pass
*** End Patch`

		ops, err := Parse(patchText)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		up := ops[0].(*UpdateOp)
		if up.FilePath != "old_name.py" {
			t.Errorf("Expected path old_name.py, got %q", up.FilePath)
		}
		if up.MovePath != "new_name.py" {
			t.Errorf("Expected move path new_name.py, got %q", up.MovePath)
		}
		if len(up.Chunks) != 1 {
			t.Fatalf("Expected 1 chunk, got %d", len(up.Chunks))
		}
	})

	t.Run("Multiple operations", func(t *testing.T) {
		patchText := `*** Begin Patch
*** Add File: new.txt
+content
*** Update File: existing.txt
-old
+new
*** Delete File: unwanted.txt
*** End Patch`

		ops, err := Parse(patchText)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(ops) != 3 {
			t.Fatalf("Expected 3 operations, got %d", len(ops))
		}
		if _, ok := ops[0].(*AddOp); !ok {
			t.Errorf("Expected ops[0] to be *AddOp, got %T", ops[0])
		}
		if _, ok := ops[1].(*UpdateOp); !ok {
			t.Errorf("Expected ops[1] to be *UpdateOp, got %T", ops[1])
		}
		if _, ok := ops[2].(*DeleteOp); !ok {
			t.Errorf("Expected ops[2] to be *DeleteOp, got %T", ops[2])
		}
	})

	t.Run("Anonymous chunks without context marker", func(t *testing.T) {
		patchText := `*** Begin Patch
*** Update File: config.txt
-old line
+new line
*** End Patch`

		ops, err := Parse(patchText)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		up := ops[0].(*UpdateOp)
		if len(up.Chunks) != 1 {
			t.Fatalf("Expected 1 chunk, got %d", len(up.Chunks))
		}
		chunk := up.Chunks[0]
		if chunk.Context != "" {
			t.Errorf("Expected empty context, got %q", chunk.Context)
		}
		if !equalLines(chunk.OldLines, []string{"old line"}) || !equalLines(chunk.NewLines, []string{"new line"}) {
			t.Errorf("Unexpected chunk: %+v", chunk)
		}
	})

	t.Run("Unrecognized line splits anonymous chunks", func(t *testing.T) {
		patchText := `*** Begin Patch
*** Update File: config.txt
-old line
stray text
+new line
*** End Patch`

		ops, err := Parse(patchText)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		up := ops[0].(*UpdateOp)
		if len(up.Chunks) != 2 {
			t.Fatalf("Expected 2 chunks, got %d", len(up.Chunks))
		}
		if !equalLines(up.Chunks[0].OldLines, []string{"old line"}) {
			t.Errorf("Unexpected first chunk: %+v", up.Chunks[0])
		}
		if !equalLines(up.Chunks[1].NewLines, []string{"new line"}) {
			t.Errorf("Unexpected second chunk: %+v", up.Chunks[1])
		}
	})

	t.Run("Unrecognized line is tolerated inside context chunk", func(t *testing.T) {
		patchText := `*** Begin Patch
*** Update File: config.txt
@@ section
-old line
stray text
+new line
*** End Patch`

		ops, err := Parse(patchText)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		up := ops[0].(*UpdateOp)
		if len(up.Chunks) != 1 {
			t.Fatalf("Expected 1 chunk, got %d", len(up.Chunks))
		}
		chunk := up.Chunks[0]
		if !equalLines(chunk.OldLines, []string{"old line"}) || !equalLines(chunk.NewLines, []string{"new line"}) {
			t.Errorf("Unexpected chunk: %+v", chunk)
		}
	})

	t.Run("End of file marker closes chunk", func(t *testing.T) {
		patchText := `*** Begin Patch
*** Update File: tail.txt
@@ last section
+appended line
*** End of File
*** End Patch`

		ops, err := Parse(patchText)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		up := ops[0].(*UpdateOp)
		if len(up.Chunks) != 1 {
			t.Fatalf("Expected 1 chunk, got %d", len(up.Chunks))
		}
		if !up.Chunks[0].IsEndOfFile {
			t.Error("Expected chunk to be marked end-of-file")
		}
	})

	t.Run("Last marker occurrence wins", func(t *testing.T) {
		patchText := `*** Begin Patch
this copy of the envelope is discarded
*** Begin Patch
*** Add File: real.txt
+real content
*** End Patch`

		ops, err := Parse(patchText)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(ops) != 1 {
			t.Fatalf("Expected 1 operation, got %d", len(ops))
		}
		add := ops[0].(*AddOp)
		if add.Contents != "real content" {
			t.Errorf("Unexpected contents: %q", add.Contents)
		}
	})

	t.Run("Missing markers", func(t *testing.T) {
		for _, text := range []string{
			"*** Add File: orphan.txt\n+content",
			"*** Begin Patch\n*** Add File: orphan.txt\n+content",
			"*** End Patch\n*** Begin Patch",
		} {
			_, err := Parse(text)
			var malformed *MalformedPatchError
			if !errors.As(err, &malformed) {
				t.Fatalf("Expected MalformedPatchError for %q, got %v", text, err)
			}
			if !strings.Contains(err.Error(), "missing Begin/End markers") {
				t.Errorf("Unexpected error message: %v", err)
			}
		}
	})

	t.Run("No operations", func(t *testing.T) {
		_, err := Parse("*** Begin Patch\n*** End Patch")
		var malformed *MalformedPatchError
		if !errors.As(err, &malformed) {
			t.Fatalf("Expected MalformedPatchError, got %v", err)
		}
		if !strings.Contains(err.Error(), "no file changes found") {
			t.Errorf("Unexpected error message: %v", err)
		}
	})
}

func equalLines(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
