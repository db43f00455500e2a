//go:build !unix

package python

// replaceProcess is unavailable; the launcher falls back to a child process.
func replaceProcess(cmd Command) error {
	return errExecUnsupported
}
