package autodetect

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/felixgeelhaar/rela/internal/application"
)

// Detector derives a configuration from the project in Dir when no
// configuration file exists.
type Detector struct {
	Dir string
	// LookPath overrides executable lookup (for testing).
	LookPath func(string) (string, error)
}

func (d Detector) Detect() (application.Config, error) {
	dir := d.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return application.Config{}, err
		}
		dir = wd
	}

	cfg := application.DefaultConfig()
	cfg.Python = d.interpreter(dir)
	if isDir(filepath.Join(dir, "src")) {
		cfg.SearchPath = []string{filepath.Join(dir, "src")}
	}
	return cfg, nil
}

// interpreter prefers a project virtualenv, then python3 and python on PATH.
func (d Detector) interpreter(dir string) string {
	for _, venv := range []string{".venv", "venv"} {
		if bin := venvPython(filepath.Join(dir, venv)); bin != "" {
			return bin
		}
	}
	lookPath := d.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, name := range []string{"python3", "python"} {
		if _, err := lookPath(name); err == nil {
			return name
		}
	}
	return application.DefaultConfig().Python
}

func venvPython(venv string) string {
	candidates := []string{filepath.Join(venv, "bin", "python3"), filepath.Join(venv, "bin", "python")}
	if runtime.GOOS == "windows" {
		candidates = []string{filepath.Join(venv, "Scripts", "python.exe")}
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
