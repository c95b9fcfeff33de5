package token

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Decimals is the number of decimal places of a whole token
const Decimals = 6

func FromQuarks(quarks uint64) uint64 {
	return quarks / QuarksPerToken
}

func ToQuarks(tokens uint64) uint64 {
	return tokens * QuarksPerToken
}

// StrToQuarks converts a decimal string representation of a token amount to
// its quark value.
//
// An error is returned if the value string is invalid, or it cannot be
// accurately represented as quarks a ledger can hold.
func StrToQuarks(val string) (uint64, error) {
	parts := strings.Split(val, ".")
	if len(parts) > 2 {
		return 0, errors.New("invalid token value")
	}

	if len(parts[0]) > 13 {
		return 0, errors.New("value cannot be represented")
	}

	whole, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, err
	}

	var quarks uint64
	if len(parts) == 2 {
		if len(parts[1]) > Decimals {
			return 0, errors.New("value cannot be represented")
		}

		padded := fmt.Sprintf("%s%s", parts[1], strings.Repeat("0", Decimals-len(parts[1])))
		quarks, err = strconv.ParseUint(padded, 10, 64)
		if err != nil {
			return 0, errors.Wrap(err, "invalid decimal component")
		}
	}

	total := whole*QuarksPerToken + quarks
	if total > MaxAmount {
		return 0, errors.New("value cannot be represented")
	}
	return total, nil
}

// StrFromQuarks converts an amount of quarks to the decimal string
// representation of the token
func StrFromQuarks(quarks uint64) string {
	return fmt.Sprintf("%d.%06d", quarks/QuarksPerToken, quarks%QuarksPerToken)
}
