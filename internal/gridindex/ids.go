package gridindex

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// IDColumn is the canonical identifier column.
const IDColumn = "Grid_ID"

// idAliases are accepted in order when Grid_ID is absent.
var idAliases = []string{"grid_id", "gridId", "GRID_ID", "id"}

// pickIDColumn returns the identifier column among names, or "".
func pickIDColumn(names []string) string {
	has := func(want string) bool {
		for _, n := range names {
			if n == want {
				return true
			}
		}
		return false
	}
	if has(IDColumn) {
		return IDColumn
	}
	for _, a := range idAliases {
		if has(a) {
			return a
		}
	}
	return ""
}

// parseID converts an identifier value of any source type to int64.
func parseID(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, fmt.Errorf("non-integer id %v", x)
		}
		return int64(x), nil
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid id %q", x)
		}
		return parseID(f)
	case nil:
		return 0, fmt.Errorf("missing id")
	default:
		return 0, fmt.Errorf("unsupported id type %T", v)
	}
}
