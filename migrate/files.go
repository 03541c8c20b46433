package migrate

import (
	"fmt"
	"os"
	"path/filepath"
)

// Migration file section markers. The runner splits on these, so they
// are part of the on-disk format.
const (
	UpMarker     = "-- Up Migration"
	DownMarker   = "-- Down Migration (Rollback)"
	sectionRule  = "-- ============"
	downSectRule = "-- ======================="
)

// File renders the migration in the on-disk format: a labelled header,
// an up section and a down section.
func (m Migration) File() string {
	content := "-- Migration: " + m.Label + "\n\n"
	content += UpMarker + "\n"
	content += sectionRule + "\n"
	content += m.Up.SQL() + "\n"
	content += "\n" + DownMarker + "\n"
	content += downSectRule + "\n"
	content += m.Down.SQL() + "\n"
	return content
}

// WriteFiles writes one <label>.sql file per migration into dir,
// creating the directory if needed. Runners pick the files up in label
// order.
func (p *Plan) WriteFiles(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating migrations folder: %w", err)
		}
	}
	for _, m := range p.steps {
		path := filepath.Join(dir, m.Label+".sql")
		if err := os.WriteFile(path, []byte(m.File()), 0644); err != nil {
			return fmt.Errorf("writing migration file %s: %w", path, err)
		}
	}
	return nil
}
