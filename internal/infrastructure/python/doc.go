// Package python starts Python interpreters with a synthesized module
// context.
//
// The Launcher implements application.Launcher. A request naming a module
// becomes `python -m <module> args...`; a request naming a command runs
// that command unchanged. Either way the child receives PYTHONPATH from the
// search path set plus the RELA_* variables describing the module context,
// so a nested rela invocation for the same script can tell it is already
// running under its qualified name.
//
// The UnittestRunner implements application.TestRunner on top of the same
// launcher with `python -m unittest`.
//
// Usage:
//
//	launcher := python.NewLauncher()
//	code, err := launcher.Launch(ctx, application.LaunchRequest{
//	    Python:     "python3",
//	    Module:     "thing.other",
//	    PythonPath: set.Env(),
//	})
package python
