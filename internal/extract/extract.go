package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	beginMarker = "*** Begin Patch"
	endMarker   = "*** End Patch"
)

// Documents returns the patch documents embedded in content, in order of
// appearance. Fenced code blocks are preferred over the raw text so that
// one fence never bleeds into another; heredoc scripts are unwrapped the
// same way. A document is any text carrying both envelope markers; full
// validation is left to the patch parser.
func Documents(content string) []string {
	if blocks, err := fencedBlocks([]byte(content)); err == nil {
		var docs []string
		for _, block := range blocks {
			if hasEnvelope(block) {
				docs = append(docs, block)
			}
		}
		if len(docs) > 0 {
			return docs
		}
	}

	if body, ok := heredocBody(content); ok && hasEnvelope(body) {
		return []string{body}
	}

	if hasEnvelope(content) {
		return []string{content}
	}

	return nil
}

// ApplyCommand recognizes a shell invocation of the patch applier and
// returns the embedded document. Both the direct form
// ("apply_patch <document>") and a "bash -lc" script containing an
// apply_patch heredoc are supported.
func ApplyCommand(argv []string) (string, bool) {
	if len(argv) == 2 && (argv[0] == "apply_patch" || argv[0] == "applypatch") {
		return argv[1], true
	}

	if len(argv) == 3 && argv[0] == "bash" && argv[1] == "-lc" {
		if body, ok := heredocBody(argv[2]); ok {
			return body, true
		}
	}

	return "", false
}

func hasEnvelope(s string) bool {
	return strings.Contains(s, beginMarker) && strings.Contains(s, endMarker)
}

// fencedBlocks walks the markdown AST and returns the raw contents of
// every fenced code block.
func fencedBlocks(source []byte) ([]string, error) {
	var blocks []string
	parser := goldmark.DefaultParser()
	root := parser.Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fencedCodeBlock, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var content bytes.Buffer
		lines := fencedCodeBlock.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		blocks = append(blocks, content.String())

		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}

	return blocks, nil
}

var heredocDelim = regexp.MustCompile(`^\w+$`)

// heredocBody extracts the body of an apply_patch heredoc from a shell
// script. The closing delimiter is matched by scanning lines; a delimiter
// line must repeat the word exactly.
func heredocBody(script string) (string, bool) {
	lines := strings.Split(script, "\n")

	for i, line := range lines {
		idx := strings.Index(line, "<<")
		if idx == -1 {
			continue
		}
		command := line[:idx]
		if !strings.Contains(command, "apply_patch") && !strings.Contains(command, "applypatch") {
			continue
		}

		delim := strings.Trim(strings.TrimSpace(line[idx+2:]), `'"`)
		if !heredocDelim.MatchString(delim) {
			continue
		}

		var body []string
		for j := i + 1; j < len(lines); j++ {
			if lines[j] == delim {
				return strings.Join(body, "\n"), true
			}
			body = append(body, lines[j])
		}
	}

	return "", false
}
