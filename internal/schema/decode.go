package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/bridgeos/govern/internal/governance"
)

// #region decode
// DecodeSession decodes an untyped session field by field. Every type
// mismatch comes back as its own SCHEMA_INVALID error and the fields that
// did decode are kept.
func DecodeSession(raw json.RawMessage) (governance.Session, []governance.EvalError) {
	var (
		s governance.Session
		c collector
	)
	if !isObject(raw) {
		c.add("session", "session must be an object")
		return s, c.errs
	}
	c.object("session", raw, reflect.ValueOf(&s).Elem())
	return s, c.errs
}

// DecodeArtifacts decodes an untyped artifact collection. A value that is
// not a JSON array yields a single ARTIFACTS_NOT_ARRAY error. Elements are
// decoded leniently and always kept, so indexes in error paths match the
// input.
func DecodeArtifacts(raw json.RawMessage) ([]governance.Artifact, []governance.EvalError) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, []governance.EvalError{{
			Code:    governance.CodeArtifactsNotArray,
			Message: "artifacts must be an array",
			Path:    "artifacts",
		}}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, []governance.EvalError{decodeError("artifacts", err)}
	}

	var c collector
	out := make([]governance.Artifact, len(elems))
	for i, e := range elems {
		out[i] = c.artifact(fmt.Sprintf("artifacts[%d]", i), e)
	}
	return out, c.errs
}

// DecodeAndValidate decodes both documents and validates whatever decoded.
// Violations under a path that already failed to decode are dropped, so a
// mistyped field is reported once.
func DecodeAndValidate(session, artifacts json.RawMessage) (governance.Session, []governance.Artifact, []governance.EvalError) {
	s, sessErrs := DecodeSession(session)
	arts, artErrs := DecodeArtifacts(artifacts)

	decoded := append(sessErrs, artErrs...)
	errs := append([]governance.EvalError(nil), decoded...)
	errs = append(errs, Shadow(decoded, ValidateSession(s))...)
	errs = append(errs, Shadow(decoded, ValidateArtifacts(arts))...)
	return s, arts, errs
}

// Shadow returns the errors in errs whose path is not at or below the path
// of an error in reported.
func Shadow(reported, errs []governance.EvalError) []governance.EvalError {
	var out []governance.EvalError
	for _, e := range errs {
		if !covered(reported, e.Path) {
			out = append(out, e)
		}
	}
	return out
}

func covered(reported []governance.EvalError, path string) bool {
	for _, r := range reported {
		if path == r.Path || strings.HasPrefix(path, r.Path+".") || strings.HasPrefix(path, r.Path+"[") {
			return true
		}
	}
	return false
}

func decodeError(path string, err error) governance.EvalError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		path = path + "." + typeErr.Field
	}
	return governance.EvalError{
		Code:    governance.CodeSchemaInvalid,
		Message: err.Error(),
		Path:    path,
	}
}

// #endregion decode

// #region walk
var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

func (c *collector) artifact(path string, raw json.RawMessage) governance.Artifact {
	var a governance.Artifact
	obj := c.object(path, raw, reflect.ValueOf(&a).Elem())
	if obj == nil {
		return a
	}
	pr, ok := obj["payload"]
	if !ok || isNull(pr) {
		return a
	}
	p := newPayload(a.Kind)
	if p == nil {
		return a
	}
	v := reflect.ValueOf(p).Elem()
	if c.object(path+".payload", pr, v) != nil {
		a.Payload = v.Interface().(governance.Payload)
	}
	return a
}

func newPayload(kind governance.Kind) any {
	switch kind {
	case governance.KindIngestion:
		return &governance.IngestionPayload{}
	case governance.KindSemantic:
		return &governance.SemanticPayload{}
	case governance.KindExecution:
		return &governance.ExecutionPayload{}
	case governance.KindGovernance:
		return &governance.GovernancePayload{}
	case governance.KindSeedSweep:
		return &governance.SeedSweepPayload{}
	}
	return nil
}

// value decodes raw into v. Plain structs and slices of them are walked so a
// mismatch deep inside still leaves its siblings decoded.
func (c *collector) value(path string, raw json.RawMessage, v reflect.Value) {
	if reflect.PointerTo(v.Type()).Implements(unmarshalerType) {
		c.leaf(path, raw, v)
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		c.object(path, raw, v)
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.Struct {
			c.leaf(path, raw, v)
			return
		}
		if isNull(raw) {
			return
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			c.add(path, "%s must be an array", path)
			return
		}
		s := reflect.MakeSlice(v.Type(), len(elems), len(elems))
		for i, e := range elems {
			c.value(fmt.Sprintf("%s[%d]", path, i), e, s.Index(i))
		}
		v.Set(s)
	case reflect.Interface:
		// decoded by the owner, which knows the concrete type
	default:
		c.leaf(path, raw, v)
	}
}

// object walks the exported fields of the struct v. It returns the raw
// members, or nil when raw is not an object.
func (c *collector) object(path string, raw json.RawMessage, v reflect.Value) map[string]json.RawMessage {
	if isNull(raw) {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		c.add(path, "%s must be an object", path)
		return nil
	}
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if !f.IsExported() || name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if member, ok := obj[name]; ok {
			c.value(path+"."+name, member, v.Field(i))
		}
	}
	return obj
}

func (c *collector) leaf(path string, raw json.RawMessage, v reflect.Value) {
	if err := json.Unmarshal(raw, v.Addr().Interface()); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if typeErr.Field != "" {
				path = path + "." + typeErr.Field
			}
			c.add(path, "%s: got %s, want %s", path, typeErr.Value, typeErr.Type)
			return
		}
		c.add(path, "%s: %v", path, err)
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// #endregion walk
