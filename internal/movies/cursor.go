package movies

import (
	"encoding/base64"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
)

// Cursor is a decoded resume point. Field and Key are set only when the
// token carried the ordering value; otherwise the record has to be looked up.
type Cursor struct {
	ID    string
	Field OrderField
	Key   any
}

type CursorCodec interface {
	Encode(m *Movie, order OrderBy) string
	Decode(token string) (Cursor, error)
}

// NewCursorCodec returns the codec for mode ("id" or "keyset"). Unknown
// modes get the id codec.
func NewCursorCodec(mode string) CursorCodec {
	if mode == "keyset" {
		return KeysetCursorCodec{}
	}
	return IDCursorCodec{}
}

// IDCursorCodec uses the record id itself as the cursor.
type IDCursorCodec struct{}

func (IDCursorCodec) Encode(m *Movie, _ OrderBy) string { return m.ID }

func (IDCursorCodec) Decode(token string) (Cursor, error) {
	return Cursor{ID: token}, nil
}

// KeysetCursorCodec packs the id together with the ordering value so resuming
// needs no extra lookup.
type KeysetCursorCodec struct{}

type keysetPayload struct {
	ID    string     `msgpack:"i"`
	Field string     `msgpack:"f"`
	Str   *string    `msgpack:"s,omitempty"`
	Int   *int64     `msgpack:"n,omitempty"`
	Float *float64   `msgpack:"r,omitempty"`
	Time  *time.Time `msgpack:"t,omitempty"`
}

func (KeysetCursorCodec) Encode(m *Movie, order OrderBy) string {
	p := keysetPayload{ID: m.ID, Field: string(order.Field)}
	switch k := order.Field.KeyOf(m).(type) {
	case string:
		p.Str = &k
	case int:
		n := int64(k)
		p.Int = &n
	case float64:
		p.Float = &k
	case time.Time:
		p.Time = &k
	}
	b, err := msgpack.Marshal(&p)
	if err != nil {
		return m.ID
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func (KeysetCursorCodec) Decode(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, apperr.Validation("invalid cursor")
	}
	var p keysetPayload
	if err := msgpack.Unmarshal(raw, &p); err != nil || p.ID == "" {
		return Cursor{}, apperr.Validation("invalid cursor")
	}

	field := OrderField(p.Field)
	c := Cursor{ID: p.ID, Field: field}
	switch {
	case field == OrderByTitle && p.Str != nil:
		c.Key = *p.Str
	case field == OrderByDuration && p.Int != nil:
		c.Key = int(*p.Int)
	case field == OrderByRating && p.Float != nil:
		c.Key = *p.Float
	case (field == OrderByReleaseDate || field == OrderByCreatedAt) && p.Time != nil:
		c.Key = p.Time.UTC()
	default:
		return Cursor{}, apperr.Validation("invalid cursor")
	}
	return c, nil
}
