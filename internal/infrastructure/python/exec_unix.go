//go:build unix

package python

import (
	"os/exec"

	"golang.org/x/sys/unix"
)

// replaceProcess execs cmd in place of the current process. It only returns
// on failure.
func replaceProcess(cmd Command) error {
	path, err := exec.LookPath(cmd.Name)
	if err != nil {
		return err
	}
	argv := append([]string{cmd.Name}, cmd.Args...)
	return unix.Exec(path, argv, cmd.Env)
}
