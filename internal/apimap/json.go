package apimap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	orbiterrors "github.com/orbitlang/orbit-backend/internal/errors"
	"github.com/orbitlang/orbit-backend/internal/typerecord"
)

// Schema version for the versioned meta/body envelope (spec §6.1).
const SchemaVersion = 0

// meta is the shared envelope header every serialised record carries.
type meta struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
}

type typeRecordJSON struct {
	Meta meta `json:"meta"`
	Body struct {
		FullName  string `json:"full_name"`
		ShortName string `json:"short_name"`
	} `json:"body"`
}

type signatureJSON struct {
	Meta meta `json:"meta"`
	Body struct {
		Name     string           `json:"name"`
		Receiver typeRecordJSON   `json:"receiver"`
		Args     []typeRecordJSON `json:"args"`
		Return   typeRecordJSON   `json:"return"`
	} `json:"body"`
}

type apiMapJSON struct {
	Meta meta `json:"meta"`
	Body struct {
		CanonicalName   string           `json:"canonical_name"`
		ExportedTypes   []typeRecordJSON `json:"exported_types"`
		ExportedMethods []signatureJSON  `json:"exported_methods"`
	} `json:"body"`
}

func exportType(t *typerecord.Record) typeRecordJSON {
	var out typeRecordJSON
	out.Meta = meta{Type: "TypeRecord", Version: SchemaVersion}
	out.Body.FullName = t.FullName
	out.Body.ShortName = t.ShortName
	return out
}

func exportSignature(s *typerecord.Record) signatureJSON {
	var out signatureJSON
	out.Meta = meta{Type: "SignatureTypeRecord", Version: SchemaVersion}
	out.Body.Name = s.FullName
	out.Body.Receiver = exportType(s.Receiver)
	for _, a := range s.Args {
		out.Body.Args = append(out.Body.Args, exportType(a))
	}
	out.Body.Return = exportType(s.Return)
	return out
}

// ToJSON serialises m to the versioned meta/body envelope format
// described in spec §6.1. Arrays are emitted in export order.
func (m *APIMap) ToJSON() ([]byte, error) {
	var out apiMapJSON
	out.Meta = meta{Type: "APIMap", Version: SchemaVersion}
	out.Body.CanonicalName = m.CanonicalName
	for _, t := range m.exportedTypes {
		out.Body.ExportedTypes = append(out.Body.ExportedTypes, exportType(t))
	}
	for _, s := range m.exportedMethods {
		out.Body.ExportedMethods = append(out.Body.ExportedMethods, exportSignature(s))
	}
	return json.MarshalIndent(out, "", "  ")
}

// MissingAPIMapKeyError reports a required key absent from a
// serialised API-Map document (spec §6.1, error code CORE003).
type MissingAPIMapKeyError struct {
	Key string
}

func (e *MissingAPIMapKeyError) Error() string {
	return fmt.Sprintf("%s: missing API-Map key: %s", orbiterrors.CORE003, e.Key)
}

// apiMapSchema is compiled once and reused across every FromJSON call.
// It validates the §6.1 envelope shape before any field is trusted,
// so a malformed precompiled .api file fails with a single
// MissingAPIMapKeyError-shaped diagnostic instead of a panic deep in
// field access.
var apiMapSchema = mustCompileSchema(apiMapSchemaDoc)

const apiMapSchemaDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://orbitlang.dev/schema/apimap.json",
  "type": "object",
  "required": ["meta", "body"],
  "properties": {
    "meta": {
      "type": "object",
      "required": ["type", "version"],
      "properties": {
        "type": {"const": "APIMap"},
        "version": {"type": "integer"}
      }
    },
    "body": {
      "type": "object",
      "required": ["canonical_name", "exported_types", "exported_methods"],
      "properties": {
        "canonical_name": {"type": "string"},
        "exported_types": {"type": "array"},
        "exported_methods": {"type": "array"}
      }
    }
  }
}`

func mustCompileSchema(doc string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	var v interface{}
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		panic(err)
	}
	const url = "https://orbitlang.dev/schema/apimap.json"
	if err := c.AddResource(url, v); err != nil {
		panic(err)
	}
	s, err := c.Compile(url)
	if err != nil {
		panic(err)
	}
	return s
}

// FromJSON parses a serialised API-Map document (spec §6.1) into an
// APIMap with every contained record marked imported, matching the
// precompiled-import path of §4.2 step 2.
func FromJSON(data []byte) (*APIMap, error) {
	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	if err := apiMapSchema.Validate(generic); err != nil {
		return nil, missingKeyFromValidation(err)
	}

	var doc apiMapJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	m := New(doc.Body.CanonicalName)
	for _, t := range doc.Body.ExportedTypes {
		rec := typerecord.NewType(t.Body.ShortName, t.Body.FullName)
		m.ExportType(rec)
		m.MarkImported(rec.FullName)
	}
	for _, s := range doc.Body.ExportedMethods {
		recv := typerecord.NewType(s.Body.Receiver.Body.ShortName, s.Body.Receiver.Body.FullName)
		var args []*typerecord.Record
		for _, a := range s.Body.Args {
			args = append(args, typerecord.NewType(a.Body.ShortName, a.Body.FullName))
		}
		ret := typerecord.NewType(s.Body.Return.Body.ShortName, s.Body.Return.Body.FullName)
		sig := typerecord.NewSignature(signatureShortName(s.Body.Name, recv, args), recv, args, ret)
		m.ExportMethod(sig)
		m.MarkImported(sig.FullName)
	}
	return m, nil
}

// missingKeyFromValidation converts the schema validator's failure
// into a MissingAPIMapKeyError, satisfying spec §6.1's "readers must
// reject missing required keys and surface a MissingAPIMapKey(key)
// error" contract. The validator's own message (which names the
// missing property) becomes the key's diagnostic text.
func missingKeyFromValidation(err error) error {
	return &MissingAPIMapKeyError{Key: err.Error()}
}

// signatureShortName recovers a signature's short name from its
// serialised full name `receiver.name.arg0.arg1...` by stripping the
// receiver prefix and the argument suffixes.
func signatureShortName(fullName string, recv *typerecord.Record, args []*typerecord.Record) string {
	name := strings.TrimPrefix(fullName, recv.FullName+".")
	for i := len(args) - 1; i >= 0; i-- {
		name = strings.TrimSuffix(name, "."+args[i].FullName)
	}
	return name
}
