package migrate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"
)

const versionLayout = "20060102150405"

var slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)

var migrationTemplate = template.Must(template.New("migration").Parse(`-- {{.Slug}}
-- +goose Up
-- +goose StatementBegin
SELECT 'up {{.Slug}}';
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
SELECT 'down {{.Slug}}';
-- +goose StatementEnd
`))

// Slug lowercases name and reduces it to [a-z0-9_].
func Slug(name string) string {
	return strings.Trim(slugInvalidRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// CreateSQLMigration writes <dir>/<version>_<slug>.sql with a goose skeleton.
// The version is derived from now in UTC.
func CreateSQLMigration(dir, name string) (string, error) {
	return createAt(dir, name, time.Now().UTC())
}

func createAt(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := Slug(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create migrations dir %q: %w", dir, err)
	}

	var buf bytes.Buffer
	if err := migrationTemplate.Execute(&buf, struct{ Slug string }{slug}); err != nil {
		return "", fmt.Errorf("render migration: %w", err)
	}

	path := filepath.Join(dir, now.Format(versionLayout)+"_"+slug+".sql")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, f.Close()
}
