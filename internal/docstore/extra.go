package docstore

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Extra holds object members a document type does not model, such as fields added by a
// newer client. They are kept verbatim on decode and written back after the modelled fields,
// so an update never drops data it does not understand.
type Extra map[string]json.RawMessage

var (
	adminFields      = []string{"type", "collections"}
	collectionFields = []string{"name", "main", "deleted", "albums"}
	albumFields      = []string{"name", "objects"}
	recordFields     = []string{"file", "thumb", "original", "width", "height", "date", "location", "title", "hash"}
)

// splitExtra returns the members of the JSON object in data whose names are not in known.
// encoding/json matches field names case-insensitively, so the comparison does too.
func splitExtra(data []byte, known []string) (Extra, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for name := range all {
		if isKnown(name, known) {
			delete(all, name)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// joinExtra appends extra to the encoded object in data. Members that collide with a known
// field are skipped. Extra members are written in name order.
func joinExtra(data []byte, extra Extra, known []string) ([]byte, error) {
	names := make([]string, 0, len(extra))
	for name := range extra {
		if !isKnown(name, known) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return data, nil
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	for _, name := range names {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value := extra[name]
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isKnown(name string, known []string) bool {
	for _, k := range known {
		if strings.EqualFold(name, k) {
			return true
		}
	}
	return false
}

func (a *Admin) UnmarshalJSON(data []byte) error {
	type plain Admin
	if err := json.Unmarshal(data, (*plain)(a)); err != nil {
		return err
	}
	extra, err := splitExtra(data, adminFields)
	a.Extra = extra
	return err
}

func (a Admin) MarshalJSON() ([]byte, error) {
	type plain Admin
	data, err := json.Marshal(plain(a))
	if err != nil {
		return nil, err
	}
	return joinExtra(data, a.Extra, adminFields)
}

func (c *Collection) UnmarshalJSON(data []byte) error {
	type plain Collection
	if err := json.Unmarshal(data, (*plain)(c)); err != nil {
		return err
	}
	extra, err := splitExtra(data, collectionFields)
	c.Extra = extra
	return err
}

func (c Collection) MarshalJSON() ([]byte, error) {
	type plain Collection
	data, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	return joinExtra(data, c.Extra, collectionFields)
}

func (a *Album) UnmarshalJSON(data []byte) error {
	type plain Album
	if err := json.Unmarshal(data, (*plain)(a)); err != nil {
		return err
	}
	extra, err := splitExtra(data, albumFields)
	a.Extra = extra
	return err
}

func (a Album) MarshalJSON() ([]byte, error) {
	type plain Album
	data, err := json.Marshal(plain(a))
	if err != nil {
		return nil, err
	}
	return joinExtra(data, a.Extra, albumFields)
}

func (r *MediaRecord) UnmarshalJSON(data []byte) error {
	type plain MediaRecord
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	extra, err := splitExtra(data, recordFields)
	r.Extra = extra
	return err
}

func (r MediaRecord) MarshalJSON() ([]byte, error) {
	type plain MediaRecord
	data, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	return joinExtra(data, r.Extra, recordFields)
}
