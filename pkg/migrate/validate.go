package migrate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

var fileNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	annotationUp    = "-- +goose Up"
	annotationDown  = "-- +goose Down"
	annotationBegin = "-- +goose StatementBegin"
	annotationEnd   = "-- +goose StatementEnd"
)

// ValidateDir checks every .sql file in dir: naming, unique versions, and
// goose annotations. All problems are reported together.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var errs error
	versions := make(map[string]string, len(names))
	for _, name := range names {
		m := fileNameRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		if prev, dup := versions[m[1]]; dup {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name))
			continue
		}
		versions[m[1]] = name
		errs = multierr.Append(errs, checkAnnotations(filepath.Join(dir, name)))
	}
	return errs
}

// checkAnnotations requires Up before Down and balanced statement blocks.
func checkAnnotations(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	var (
		upLine, downLine int
		depth            int
	)
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		switch strings.TrimSpace(sc.Text()) {
		case annotationUp:
			upLine = n
		case annotationDown:
			downLine = n
		case annotationBegin:
			depth++
		case annotationEnd:
			depth--
			if depth < 0 {
				return fmt.Errorf("migration %q: StatementEnd without StatementBegin at line %d", name, n)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}

	switch {
	case upLine == 0:
		return fmt.Errorf("migration %q missing %q", name, annotationUp)
	case downLine == 0:
		return fmt.Errorf("migration %q missing %q", name, annotationDown)
	case downLine < upLine:
		return fmt.Errorf("migration %q declares Down before Up", name)
	case depth != 0:
		return fmt.Errorf("migration %q has unbalanced statement blocks", name)
	}
	return nil
}
