package introspection

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-version"

	"github.com/satishbabariya/reportql/internal/adapters/database"
)

// Oldest server versions whose information_schema and join syntax the SQL
// store relies on.
var minimumVersions = map[database.SQLDialect]string{
	database.PostgreSQL: "11.0",
	database.MySQL:      "5.7.0",
	database.SQLite:     "3.25.0",
}

var versionPattern = regexp.MustCompile(`\d+(\.\d+)+|\d+`)

// VersionCheck is the result of comparing a server with the supported minimum.
type VersionCheck struct {
	Dialect   database.SQLDialect
	Raw       string
	Version   *version.Version
	Minimum   *version.Version
	Supported bool
}

// MinimumVersion returns the oldest supported server version for dialect.
func MinimumVersion(dialect database.SQLDialect) (*version.Version, error) {
	raw, ok := minimumVersions[dialect]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}
	return version.NewVersion(raw)
}

// CheckVersion extracts the version number from a server banner such as
// "PostgreSQL 15.3 on x86_64-pc-linux-gnu" or "8.0.35-log".
func CheckVersion(dialect database.SQLDialect, raw string) (*VersionCheck, error) {
	minimum, err := MinimumVersion(dialect)
	if err != nil {
		return nil, err
	}
	found := versionPattern.FindString(raw)
	if found == "" {
		return nil, fmt.Errorf("no version number in %q", raw)
	}
	v, err := version.NewVersion(found)
	if err != nil {
		return nil, fmt.Errorf("failed to parse version %q: %w", found, err)
	}
	return &VersionCheck{
		Dialect:   dialect,
		Raw:       raw,
		Version:   v,
		Minimum:   minimum,
		Supported: v.GreaterThanOrEqual(minimum),
	}, nil
}
