// Package migrations holds the SQL schema applied by the install endpoint and
// the stores' EnsureSchema.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed postgres/*.sql
var files embed.FS

// Postgres returns the Postgres migration scripts in filename order
func Postgres() ([]string, error) {
	names, err := fs.Glob(files, "postgres/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	scripts := make([]string, 0, len(names))
	for _, name := range names {
		b, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, string(b))
	}
	return scripts, nil
}
