package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/skemadb/skema/internal/ir"
)

// EncodeCollection renders one collection as a builder object literal
// with a schema member and, only when rules are present, a rules
// member.
func EncodeCollection(def ir.CollectionDef) (string, error) {
	w := &sourceWriter{}
	if err := encodeCollection(w, def); err != nil {
		return "", err
	}
	return w.String(), nil
}

func encodeCollection(w *sourceWriter, def ir.CollectionDef) error {
	w.write("{")
	w.newline()
	w.in()

	w.write("schema: s.Schema(")
	if err := encodeTree(w, def.Schema); err != nil {
		return err
	}
	w.write("),")
	w.newline()

	if def.Rules != nil {
		w.write("rules: ")
		if err := transcribeValue(w, def.Rules); err != nil {
			return fmt.Errorf("rules: %w", err)
		}
		w.write(",")
		w.newline()
	}

	w.out()
	w.write("}")
	return nil
}

// transcribeValue embeds an opaque structured value as a source
// literal, reindented to the current nesting depth. This is a pure
// pass-through: keys, operators and values are reproduced without
// semantic inspection. String content is NOT escaped - rules are
// author-authored and trusted; a quote or control character inside a
// rule value will corrupt the surrounding syntax. Known limitation.
func transcribeValue(w *sourceWriter, v ir.Value) error {
	switch val := v.(type) {
	case ir.Object:
		if len(val) == 0 {
			w.write("{}")
			return nil
		}
		w.write("{")
		w.newline()
		w.in()
		for _, f := range val {
			w.writef("%s: ", f.Key)
			if err := transcribeValue(w, f.Value); err != nil {
				return err
			}
			w.write(",")
			w.newline()
		}
		w.out()
		w.write("}")
		return nil
	case ir.Array:
		elems := make([]string, len(val))
		for i, elem := range val {
			text, err := transcribeInline(elem)
			if err != nil {
				return err
			}
			elems[i] = text
		}
		w.writef("[%s]", strings.Join(elems, ", "))
		return nil
	default:
		text, err := transcribeInline(v)
		if err != nil {
			return err
		}
		w.write(text)
		return nil
	}
}

// transcribeInline renders a rules value on a single line. Arrays stay
// inline at any depth; nested objects render compactly.
func transcribeInline(v ir.Value) (string, error) {
	switch val := v.(type) {
	case ir.Null:
		return "null", nil
	case ir.String:
		// Raw, unescaped - see transcribeValue.
		return `"` + string(val) + `"`, nil
	case ir.Int:
		return strconv.FormatInt(int64(val), 10), nil
	case ir.Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), nil
	case ir.Bool:
		return strconv.FormatBool(bool(val)), nil
	case ir.Array:
		elems := make([]string, len(val))
		for i, elem := range val {
			text, err := transcribeInline(elem)
			if err != nil {
				return "", err
			}
			elems[i] = text
		}
		return "[" + strings.Join(elems, ", ") + "]", nil
	case ir.Object:
		if len(val) == 0 {
			return "{}", nil
		}
		fields := make([]string, len(val))
		for i, f := range val {
			text, err := transcribeInline(f.Value)
			if err != nil {
				return "", err
			}
			fields[i] = fmt.Sprintf("%s: %s", f.Key, text)
		}
		return "{ " + strings.Join(fields, ", ") + " }", nil
	default:
		return "", unsupportedLiteral("cannot transcribe %T in a rules block", v)
	}
}
