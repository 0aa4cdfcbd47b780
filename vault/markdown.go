package vault

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

var markdown = goldmark.New()

// parseDocument splits optional YAML front matter off src, extracts the
// plain text of the markdown body and NFC-normalizes everything. Front
// matter that fails to parse as YAML is kept as body text instead of
// failing the document.
func parseDocument(src []byte) Document {
	var doc Document

	meta, body := splitFrontMatter(src)
	if meta != nil {
		title, extra, err := parseFrontMatter(meta)
		if err != nil {
			body = src
		} else {
			doc.Title = norm.NFC.String(title)
			doc.Extra = extra
		}
	}

	doc.Text = norm.NFC.String(extractText(body))
	return doc
}

// splitFrontMatter returns the YAML block between leading "---" lines and
// the remaining body. With no front matter it returns a nil meta.
func splitFrontMatter(src []byte) (meta, body []byte) {
	const delim = "---"

	s := string(src)
	if !strings.HasPrefix(s, delim+"\n") && !strings.HasPrefix(s, delim+"\r\n") {
		return nil, src
	}

	rest := s[strings.IndexByte(s, '\n')+1:]
	for _, end := range []string{"\n" + delim + "\n", "\n" + delim + "\r\n"} {
		if i := strings.Index(rest, end); i >= 0 {
			return []byte(rest[:i]), []byte(rest[i+len(end):])
		}
	}
	if strings.HasSuffix(rest, "\n"+delim) {
		return []byte(strings.TrimSuffix(rest, "\n"+delim)), nil
	}
	return nil, src
}

// parseFrontMatter pulls the title out of the YAML block and stringifies
// every other field into the extra map.
func parseFrontMatter(meta []byte) (string, map[string]string, error) {
	var fields map[string]any
	if err := yaml.Unmarshal(meta, &fields); err != nil {
		return "", nil, err
	}

	var title string
	extra := make(map[string]string)
	for key, value := range fields {
		if key == "title" {
			if s, ok := value.(string); ok {
				title = s
				continue
			}
		}
		extra[key] = norm.NFC.String(fmt.Sprintf("%v", value))
	}
	if len(extra) == 0 {
		extra = nil
	}
	return title, extra, nil
}

// extractText walks the markdown AST and collects the raw text of every
// node, with single newlines between blocks. Markup such as emphasis
// markers, link targets and heading hashes is dropped.
func extractText(source []byte) string {
	doc := markdown.Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				sb.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					sb.WriteByte('\n')
				}
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					sb.Write(seg.Value(source))
				}
			}
		default:
			if !entering && n.Type() == ast.TypeBlock && sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}
