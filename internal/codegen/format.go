package codegen

import "strings"

// Format normalizes assembled module text at the output boundary:
// trailing whitespace is stripped from every line and the text ends in
// exactly one newline. The serializer already emits well-indented
// source, so this is the whole of the in-process formatting pass;
// richer pretty-printing belongs to external tooling.
func Format(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	out = strings.TrimRight(out, "\n")
	return out + "\n"
}
