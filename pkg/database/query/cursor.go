package query

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Cursor is an opaque pagination position. Stores encode the last seen record
// Id as a big-endian uint64.
type Cursor []byte

var (
	EmptyCursor Cursor = Cursor([]byte{})
)

func ToCursor(val uint64) Cursor {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, val)
	return b
}

func (c Cursor) ToUint64() uint64 {
	return binary.BigEndian.Uint64(c)
}

func (c Cursor) ToBase58() string {
	return base58.Encode(c)
}

// CursorFromBase58 parses a cursor previously produced by Cursor.ToBase58
func CursorFromBase58(val string) (Cursor, error) {
	if len(val) == 0 {
		return EmptyCursor, nil
	}

	decoded, err := base58.Decode(val)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 cursor")
	}
	if len(decoded) != 8 {
		return nil, errors.Errorf("invalid cursor length %d", len(decoded))
	}
	return decoded, nil
}
