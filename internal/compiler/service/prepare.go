package service

import (
	"regexp"
	"strings"

	"mockinterview/internal/compiler/model"
	"mockinterview/internal/compiler/profile"
	appErr "mockinterview/pkg/errors"
)

const wrapperTypeName = "Main"

var (
	publicTypePattern = regexp.MustCompile(`(?m)(?:^|[;}\s])public\s+(?:(?:final|abstract|static|sealed|non-sealed|strictfp)\s+)*(?:class|interface|enum|record)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	anyTypePattern    = regexp.MustCompile(`(?m)(?:^|[;}\s])(?:(?:final|abstract|sealed|non-sealed|strictfp)\s+)*(?:class|interface|enum|record)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	staticMainPattern = regexp.MustCompile(`\bstatic\s+void\s+main\s*\(`)
	importLinePattern = regexp.MustCompile(`^\s*(?:import|package)\s+[\w.*\s]+;\s*$`)
	importStmtPattern = regexp.MustCompile(`(?m)^\s*(?:import|package)\s+[\w.*\s]+;`)

	// typeDeclPattern matches a whole top-level declaration in topLevelText output,
	// where the body is already blanked to "{ ... }".
	typeDeclPattern = regexp.MustCompile(`(?:@[A-Za-z_$][\w$.]*(?:\s*\([^)]*\))?\s+)*(?:(?:public|protected|private|final|abstract|static|sealed|non-sealed|strictfp)\s+)*(?:@interface|\b(?:class|interface|enum|record))\s+[A-Za-z_$][\w$]*[^{};]*\{[^{}]*\}`)
)

// Prepare turns raw source into the submission for its language.
// Languages that need entry-point matching get a derived file name and, when the
// snippet has no public type and holds statements at the top level, a synthesized
// Main wrapper.
func Prepare(sourceCode, language string) (model.PreparedSubmission, error) {
	if strings.TrimSpace(sourceCode) == "" {
		return model.PreparedSubmission{}, appErr.InvalidInput(appErr.SourceCodeEmpty, "sourceCode")
	}
	p, ok := profile.Resolve(language)
	if !ok {
		return model.PreparedSubmission{}, appErr.Newf(appErr.LanguageNotSupported,
			"language %q is not supported; supported: %s", language, strings.Join(profile.Supported(), ", ")).
			WithDetail("language", language)
	}

	sub := model.PreparedSubmission{
		Language:    p.Name,
		SandboxID:   p.SandboxID,
		FileName:    p.DefaultFileName,
		FileContent: sourceCode,
		Command:     model.SandboxCommand,
	}
	if !p.RequiresEntryPointWrap {
		return sub, nil
	}

	stripped := stripCommentsAndLiterals(sourceCode)
	topLevel := topLevelText(stripped)
	if m := publicTypePattern.FindStringSubmatch(topLevel); m != nil {
		sub.EntryPoint = m[1]
		sub.FileName = m[1] + p.Extension
		return sub, nil
	}

	decls := typeDeclPattern.FindAllStringIndex(topLevel, -1)
	if m := anyTypePattern.FindStringSubmatch(topLevel); m != nil && declarationsOnly(topLevel, decls) {
		// Non-public types may live in any file; the runtime starts from the first one.
		sub.EntryPoint = m[1]
		sub.FileName = wrapperTypeName + p.Extension
		return sub, nil
	}

	// Statements sit at the top level, so they go into Main. Declared types move out
	// beside it; inside a static main they would be local or inner types.
	body, types := cutSpans(sourceCode, decls)
	strippedBody, _ := cutSpans(stripped, decls)
	content := wrapInMain(body, staticMainPattern.MatchString(strippedBody))
	if len(types) > 0 {
		content += "\n" + strings.Join(types, "\n\n") + "\n"
	}

	sub.EntryPoint = wrapperTypeName
	sub.FileName = wrapperTypeName + p.Extension
	sub.FileContent = content
	return sub, nil
}

// declarationsOnly reports whether nothing but type declarations, imports and stray
// semicolons sits at the top level.
func declarationsOnly(topLevel string, decls [][]int) bool {
	if len(decls) == 0 {
		return false
	}
	rest, _ := cutSpans(topLevel, decls)
	rest = importStmtPattern.ReplaceAllString(rest, "")
	return strings.TrimSpace(strings.ReplaceAll(rest, ";", "")) == ""
}

// cutSpans removes the [start, end) spans from s, returning what is left and the
// removed pieces in order.
func cutSpans(s string, spans [][]int) (string, []string) {
	if len(spans) == 0 {
		return s, nil
	}
	var rest strings.Builder
	pieces := make([]string, 0, len(spans))
	prev := 0
	for _, sp := range spans {
		rest.WriteString(s[prev:sp[0]])
		pieces = append(pieces, strings.TrimSpace(s[sp[0]:sp[1]]))
		prev = sp[1]
	}
	rest.WriteString(s[prev:])
	return rest.String(), pieces
}

// wrapInMain encloses a snippet in "public class Main". Import lines are hoisted above the
// class. Snippets that already define a static main become the class body, anything else
// becomes the body of a generated main method.
func wrapInMain(source string, hasMain bool) string {
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	var header, body []string
	inHeader := true
	for _, line := range lines {
		if inHeader {
			if importLinePattern.MatchString(line) {
				if !strings.HasPrefix(strings.TrimSpace(line), "package") {
					header = append(header, strings.TrimSpace(line))
				}
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			inHeader = false
		}
		body = append(body, line)
	}
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}

	var b strings.Builder
	for _, h := range header {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	if len(header) > 0 {
		b.WriteByte('\n')
	}
	b.WriteString("public class " + wrapperTypeName + " {\n")
	indent := "    "
	if !hasMain {
		b.WriteString("    public static void main(String[] args) throws Exception {\n")
		indent = "        "
	}
	for _, line := range body {
		if strings.TrimSpace(line) == "" {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if !hasMain {
		b.WriteString("    }\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// stripCommentsAndLiterals blanks out comments and string or char literal contents,
// keeping newlines so line anchors still work.
func stripCommentsAndLiterals(src string) string {
	out := []byte(src)
	const (
		code = iota
		lineComment
		blockComment
		stringLit
		charLit
		textBlock
	)
	state := code
	for i := 0; i < len(out); i++ {
		c := out[i]
		next := byte(0)
		if i+1 < len(out) {
			next = out[i+1]
		}
		switch state {
		case code:
			switch {
			case c == '/' && next == '/':
				state = lineComment
				out[i], out[i+1] = ' ', ' '
				i++
			case c == '/' && next == '*':
				state = blockComment
				out[i], out[i+1] = ' ', ' '
				i++
			case c == '"' && strings.HasPrefix(src[i:], `"""`):
				state = textBlock
				i += 2
			case c == '"':
				state = stringLit
			case c == '\'':
				state = charLit
			}
		case lineComment:
			if c == '\n' {
				state = code
			} else {
				out[i] = ' '
			}
		case blockComment:
			if c == '*' && next == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				state = code
			} else if c != '\n' {
				out[i] = ' '
			}
		case stringLit, charLit:
			quote := byte('"')
			if state == charLit {
				quote = '\''
			}
			switch {
			case c == '\\' && i+1 < len(out):
				out[i] = ' '
				if out[i+1] != '\n' {
					out[i+1] = ' '
				}
				i++
			case c == quote:
				state = code
			case c == '\n':
				state = code
			default:
				out[i] = ' '
			}
		case textBlock:
			if strings.HasPrefix(src[i:], `"""`) {
				i += 2
				state = code
			} else if c != '\n' {
				out[i] = ' '
			}
		}
	}
	return string(out)
}

// topLevelText keeps only text at brace depth zero.
func topLevelText(src string) string {
	out := []byte(src)
	depth := 0
	for i, c := range out {
		switch c {
		case '{':
			depth++
			if depth > 1 {
				out[i] = ' '
			}
			continue
		case '}':
			if depth > 0 {
				depth--
			}
			if depth > 0 {
				out[i] = ' '
			}
			continue
		case '\n':
			continue
		}
		if depth > 0 {
			out[i] = ' '
		}
	}
	return string(out)
}
