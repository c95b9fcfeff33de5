package token

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrToQuarks(t *testing.T) {
	validCases := map[string]uint64{
		"0.000001":             1,
		"0.000020":             20,
		"0.200000":             200_000,
		"1.000000":             1e6,
		"1.500000":             1e6 + 1e6/2,
		"1":                    1e6,
		"10":                   10e6,
		"9974.999000":          9_974_999_000,
		"9223372036854.775807": MaxAmount,
	}
	for in, expected := range validCases {
		actual, err := StrToQuarks(in)
		assert.NoError(t, err)
		assert.Equal(t, expected, actual)

		if strings.Contains(in, ".") {
			assert.Equal(t, in, StrFromQuarks(expected))
		} else {
			assert.Equal(t, fmt.Sprintf("%s.000000", in), StrFromQuarks(expected))
		}
	}

	// Ensure odd padding works.
	validCases = map[string]uint64{
		"0.0002":    200,
		"0.2":       200_000,
		"1.000":     1e6,
		"1.5":       1e6 + 1e6/2,
		"341856.59": 341_856_590_000,
	}
	for in, expected := range validCases {
		actual, err := StrToQuarks(in)
		assert.NoError(t, err)
		assert.Equal(t, expected, actual)
	}

	invalidCases := []string{
		"0.0000001",
		"9223372036854.775808",
		"99999999999999",
		"abc",
		"-1",
		"10.-1",
		"10.0.0",
		".0",
	}
	for _, in := range invalidCases {
		actual, err := StrToQuarks(in)
		assert.Error(t, err)
		assert.EqualValues(t, 0, actual)
	}
}

func TestTokenConversion(t *testing.T) {
	assert.EqualValues(t, 10_000_000, ToQuarks(10))
	assert.EqualValues(t, 10, FromQuarks(10_999_999))
}
