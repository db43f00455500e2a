package pysource

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/felixgeelhaar/rela/internal/domain"
)

// ImportsModule reports whether file, a package initializer, imports module
// either absolutely or relative to the package named by the first component
// of module.
func (Scanner) ImportsModule(ctx context.Context, file, module string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f, err := os.Open(file) // #nosec G304 -- initializer found by the resolver
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	pkg, _, _ := strings.Cut(module, ".")
	// Relative imports in an initializer are anchored at the package itself.
	anchor := pkg + ".__init__"

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		for _, stmt := range strings.Split(stripComment(scanner.Text()), ";") {
			if importsModule(strings.TrimSpace(stmt), anchor, module) {
				return true, nil
			}
		}
	}
	return false, scanner.Err()
}

func importsModule(stmt, anchor, module string) bool {
	covers := func(name string) bool {
		return name == module || strings.HasPrefix(name, module+".")
	}

	switch {
	case strings.HasPrefix(stmt, "import "):
		for _, name := range importedNames(strings.TrimPrefix(stmt, "import ")) {
			if covers(name) {
				return true
			}
		}
	case strings.HasPrefix(stmt, "from "):
		from, names, ok := strings.Cut(strings.TrimPrefix(stmt, "from "), " import ")
		if !ok {
			return false
		}
		base, err := domain.ResolveModuleRef(anchor, strings.TrimSpace(from))
		if err != nil {
			return false
		}
		if covers(base) {
			return true
		}
		for _, name := range importedNames(names) {
			if base+"."+name == module {
				return true
			}
		}
	}
	return false
}

// importedNames splits "a.b as c, (d, e)" into ["a.b", "d", "e"].
func importedNames(list string) []string {
	list = strings.Trim(strings.TrimSpace(list), "()\\")
	var out []string
	for _, part := range strings.Split(list, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 || fields[0] == "*" {
			continue
		}
		out = append(out, fields[0])
	}
	return out
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}
