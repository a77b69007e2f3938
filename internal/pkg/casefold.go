package pkg

import (
	"database/sql/driver"
	"strings"

	sqlite "github.com/glebarez/go-sqlite"
)

// CaseFoldFunc is the SQL function Search uses on SQLite to lower-case a
// column with Go's Unicode rules.
const CaseFoldFunc = "casefold"

// Registered on the driver before any connection is opened; connections pick
// it up when they are created.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction(CaseFoldFunc, 1, caseFold)
}

func caseFold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}
