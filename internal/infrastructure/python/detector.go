package python

import (
	"os"

	"github.com/felixgeelhaar/rela/internal/application"
	"github.com/felixgeelhaar/rela/internal/domain"
)

// EnvDetector implements application.EntryDetector from the RELA_MODULE
// variable a launcher exports to its child.
type EnvDetector struct {
	// Getenv overrides environment lookup (for testing).
	Getenv func(string) string
}

func (d EnvDetector) Detect(module string) domain.EntryMode {
	getenv := d.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if running := getenv(application.EnvModule); running != "" && running == module {
		return domain.ModeImported
	}
	return domain.ModeMain
}
