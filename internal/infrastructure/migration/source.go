package migration

import (
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Migration names one up/down pair
type Migration struct {
	Version uint
	Name    string
}

// ListMigrations returns the migrations in source ordered by version. Every
// up file must have a matching down file.
func ListMigrations(source fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	files := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files[e.Name()] = true
		}
	}

	var out []Migration
	for name := range files {
		base, ok := strings.CutSuffix(name, upSuffix)
		if !ok {
			continue
		}
		if !files[base+downSuffix] {
			return nil, fmt.Errorf("migration %s has no down file", base)
		}
		versionPart, label, _ := strings.Cut(base, "_")
		version, err := strconv.ParseUint(versionPart, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("migration %s: version is not numeric", base)
		}
		out = append(out, Migration{Version: uint(version), Name: label})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
