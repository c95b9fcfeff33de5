package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginateQuery(t *testing.T) {
	base := "SELECT id FROM table WHERE (state = $1)"

	query, opts := PaginateQuery(base, []interface{}{1}, nil, 0, Ascending)
	assert.Equal(t, base+" ORDER BY id ASC", query)
	assert.Equal(t, []interface{}{1}, opts)

	query, opts = PaginateQuery(base, []interface{}{1}, ToCursor(10), 25, Descending)
	assert.Equal(t, base+" AND id < $2 ORDER BY id DESC LIMIT $3", query)
	assert.Equal(t, []interface{}{1, uint64(10), uint64(25)}, opts)

	query, opts = PaginateQuery(base, []interface{}{1}, ToCursor(10), 5, Ascending)
	assert.Equal(t, base+" AND id > $2 ORDER BY id ASC LIMIT $3", query)
	assert.Equal(t, []interface{}{1, uint64(10), uint64(5)}, opts)
}

func TestCursorBase58RoundTrip(t *testing.T) {
	cursor := ToCursor(123456789)

	parsed, err := CursorFromBase58(cursor.ToBase58())
	require.NoError(t, err)
	assert.EqualValues(t, 123456789, parsed.ToUint64())

	parsed, err = CursorFromBase58("")
	require.NoError(t, err)
	assert.Empty(t, parsed)

	_, err = CursorFromBase58("0OIl")
	assert.Error(t, err)

	_, err = CursorFromBase58("2g")
	assert.Error(t, err)
}

func TestOrdering(t *testing.T) {
	for _, o := range []Ordering{Ascending, Descending} {
		parsed, err := ToOrdering(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
	}

	_, err := ToOrdering("sideways")
	assert.Error(t, err)
}
