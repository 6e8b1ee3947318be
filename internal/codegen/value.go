package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/skemadb/skema/internal/ir"
)

// EncodeLiteral renders a scalar value as a source literal.
// Defined only for string, number, boolean and null; arrays and
// objects fail with an unsupported-literal error.
func EncodeLiteral(v ir.Value) (string, error) {
	switch val := v.(type) {
	case ir.Null:
		return "null", nil
	case ir.String:
		return quoteString(string(val)), nil
	case ir.Int:
		return strconv.FormatInt(int64(val), 10), nil
	case ir.Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), nil
	case ir.Bool:
		return strconv.FormatBool(bool(val)), nil
	default:
		return "", unsupportedLiteral("cannot render %T as a literal", v)
	}
}

// EncodeDefault renders a default value: a literal, or a call to one
// of the allow-listed default functions. A call naming any other
// function fails with an invalid-default-function error.
func EncodeDefault(d ir.Default) (string, error) {
	switch def := d.(type) {
	case ir.DefaultLiteral:
		return EncodeLiteral(def.Value)
	case ir.DefaultCall:
		if !ir.DefaultFunctions[def.Name] {
			return "", invalidDefaultFunction("unknown default function %q", def.Name)
		}
		args := make([]string, len(def.Args))
		for i, arg := range def.Args {
			text, err := EncodeLiteral(arg)
			if err != nil {
				return "", fmt.Errorf("default %s() arg %d: %w", def.Name, i, err)
			}
			args[i] = text
		}
		return fmt.Sprintf("%s(%s)", def.Name, strings.Join(args, ", ")), nil
	default:
		return "", unsupportedLiteral("cannot render %T as a default value", d)
	}
}

// EncodeValueOptions renders the inner fragment of an options literal:
// "nullable: <bool>" when explicitly set and "default: <text>" when
// present, comma-joined. An empty fragment (not empty braces) is
// returned when neither key is present; callers decide whether to wrap
// the type call with zero or one argument group.
func EncodeValueOptions(o ir.ValueOptions) (string, error) {
	var parts []string
	if o.Nullable != nil {
		parts = append(parts, fmt.Sprintf("nullable: %t", *o.Nullable))
	}
	if o.Default != nil {
		text, err := EncodeDefault(o.Default)
		if err != nil {
			return "", err
		}
		parts = append(parts, "default: "+text)
	}
	return strings.Join(parts, ", "), nil
}

// quoteString renders a double-quoted string literal with backslash,
// quote and control characters escaped.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
