// Package corpus reads and writes the per-event JSON records.
//
// Records are edited at the byte level so that fields unknown to
// model.Event and the key order of every object survive each pass.
package corpus

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/sells-group/hpi-cli/internal/model"
)

// prettyOptions reproduces a two-space indented dump with one array
// element per line.
var prettyOptions = &pretty.Options{
	Width:    0,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// ErrSchema marks a record that is well-formed JSON but whose fields do
// not fit model.Event, such as a quoted year. Callers report such a
// record and carry on with the rest of the corpus.
var ErrSchema = eris.New("record does not match the event schema")

// Record is one event document plus its typed view.
type Record struct {
	Path string
	Name string
	Stem string

	orig  []byte
	raw   []byte
	event *model.Event
}

// Parse builds a Record from the file contents at path.
func Parse(path string, data []byte) (*Record, error) {
	name := filepath.Base(path)
	r := &Record{
		Path: path,
		Name: name,
		Stem: strings.TrimSuffix(name, filepath.Ext(name)),
		orig: data,
		raw:  data,
	}
	if err := r.decode(); err != nil {
		return nil, eris.Wrapf(err, "corpus: parse %s", name)
	}
	return r, nil
}

func (r *Record) decode() error {
	if !gjson.ValidBytes(r.raw) {
		return eris.New("invalid json")
	}
	if !gjson.ParseBytes(r.raw).IsObject() {
		return eris.New("record must be a json object")
	}
	var e model.Event
	if err := json.Unmarshal(r.raw, &e); err != nil {
		return eris.Wrap(ErrSchema, err.Error())
	}
	r.event = &e
	return nil
}

// Event returns the typed view, refreshed after every edit.
func (r *Record) Event() *model.Event {
	return r.event
}

// ID returns the record id, falling back to the file stem.
func (r *Record) ID() string {
	if r.event != nil && r.event.ID != "" {
		return r.event.ID
	}
	return r.Stem
}

// Raw returns the current document bytes.
func (r *Record) Raw() []byte {
	return r.raw
}

// Get reads the value at a gjson path.
func (r *Record) Get(path string) gjson.Result {
	return gjson.GetBytes(r.raw, path)
}

// Set replaces or creates the value at path. Missing parent objects are
// created.
func (r *Record) Set(path string, value any) error {
	raw, err := MarshalValue(value)
	if err != nil {
		return eris.Wrapf(err, "corpus: marshal %s", path)
	}
	return r.SetRaw(path, raw)
}

// SetRaw replaces or creates the value at path with pre-encoded JSON.
func (r *Record) SetRaw(path string, raw []byte) error {
	out, err := sjson.SetRawBytes(r.raw, path, raw)
	if err != nil {
		return eris.Wrapf(err, "corpus: set %s", path)
	}
	return r.replace(out)
}

// Delete removes the value at path; a missing path is not an error.
func (r *Record) Delete(path string) error {
	if !r.Get(path).Exists() {
		return nil
	}
	out, err := sjson.DeleteBytes(r.raw, path)
	if err != nil {
		return eris.Wrapf(err, "corpus: delete %s", path)
	}
	return r.replace(out)
}

// InsertAfter sets key inside the object at parent so that it sits
// immediately after anchor. An existing key is moved. When anchor is
// absent the key is appended. An empty parent addresses the top level.
func (r *Record) InsertAfter(parent, anchor, key string, value any) error {
	raw, err := MarshalValue(value)
	if err != nil {
		return eris.Wrapf(err, "corpus: marshal %s", key)
	}

	obj := gjson.ParseBytes(r.raw)
	if parent != "" {
		obj = r.Get(parent)
	}
	if obj.Exists() && !obj.IsObject() {
		return eris.Errorf("corpus: %s is not an object", parent)
	}

	type member struct {
		key string
		raw string
	}
	var members []member
	inserted := false
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			return true
		}
		members = append(members, member{key: k.String(), raw: v.Raw})
		if k.String() == anchor {
			members = append(members, member{key: key, raw: string(raw)})
			inserted = true
		}
		return true
	})
	if !inserted {
		members = append(members, member{key: key, raw: string(raw)})
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := MarshalValue(m.key)
		if err != nil {
			return eris.Wrap(err, "corpus: marshal key")
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(m.raw)
	}
	buf.WriteByte('}')

	if parent == "" {
		return r.replace(buf.Bytes())
	}
	return r.SetRaw(parent, buf.Bytes())
}

func (r *Record) replace(out []byte) error {
	prev := r.raw
	r.raw = out
	if err := r.decode(); err != nil {
		r.raw = prev
		_ = r.decode()
		return eris.Wrapf(err, "corpus: edit %s", r.Name)
	}
	return nil
}

// Bytes returns the formatted document as it would be written to disk.
func (r *Record) Bytes() []byte {
	return Format(r.raw)
}

// Changed reports whether the formatted document differs from what was
// read.
func (r *Record) Changed() bool {
	return !bytes.Equal(r.Bytes(), r.orig)
}

// Format pretty-prints a JSON document with a two-space indent and a
// single trailing newline.
func Format(raw []byte) []byte {
	out := pretty.PrettyOptions(raw, prettyOptions)
	out = bytes.TrimRight(out, "\n")
	return append(out, '\n')
}

// MarshalValue encodes v as compact JSON without HTML escaping, leaving
// non-ASCII text as-is.
func MarshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
