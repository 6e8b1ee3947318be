package codegen

import (
	"fmt"

	"github.com/skemadb/skema/internal/ir"
)

// importLine brings the builder namespace and the default-value
// functions into scope in the generated module.
const importLine = `import { s, now, uuid } from "@skema/define";`

// EncodeModule renders the full source module for a resolved schema:
// header comment, import line, and one exported constant holding every
// collection in declaration order.
//
// The assembler performs no validation itself; any error raised by the
// value, attribute or collection layers propagates unchanged and no
// partial output is produced.
func EncodeModule(schema *ir.Schema) (string, error) {
	fingerprint, err := ir.SchemaFingerprint(schema)
	if err != nil {
		return "", fmt.Errorf("schema fingerprint: %w", err)
	}

	w := &sourceWriter{}
	w.write("// Code generated by skema. DO NOT EDIT.")
	w.newline()
	w.writef("// Schema version %d, fingerprint sha256:%s", schema.Version, fingerprint)
	w.newline()
	w.newline()
	w.write(importLine)
	w.newline()
	w.newline()

	w.write("export const schema = {")
	w.newline()
	w.in()
	for _, c := range schema.Collections {
		w.writef("%s: ", c.Name)
		if err := encodeCollection(w, c.Def); err != nil {
			return "", fmt.Errorf("collection %q: %w", c.Name, err)
		}
		w.write(",")
		w.newline()
	}
	w.out()
	w.write("};")
	w.newline()

	return w.String(), nil
}
