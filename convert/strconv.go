package convert

import (
	"fmt"
	"strconv"
)

func formatIntBase(x int64, base int) string {
	return strconv.FormatInt(x, base)
}

func parseIntBase(s string, base int) (int64, error) {
	x, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as base-%d int: %w", s, base, err)
	}
	return x, nil
}
