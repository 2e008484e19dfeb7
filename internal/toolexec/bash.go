package toolexec

import (
	"strings"
)

// bashCommand implements the restricted bash_command tool (§4.3): a 4-verb
// mini-shell acting only on the VFS, not the host. Anything else is
// rejected with an error, matching the teacher's bash tool's tight input
// validation but against an entirely different execution surface.
func (e *Executor) bashCommand(input map[string]any) *Result {
	command, present := stringArg(input, "command")
	if !present || strings.TrimSpace(command) == "" {
		return failf("bash_command requires command")
	}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return failf("bash_command requires command")
	}

	switch fields[0] {
	case "mkdir":
		return e.bashMkdir(fields[1:])
	case "ls":
		return e.bashLs(fields[1:])
	case "pwd":
		return ok(e.workingDir)
	case "echo":
		return ok(strings.Join(fields[1:], " "))
	default:
		return failf("bash_command: command %q is not allowed (only mkdir, ls, pwd, echo are allowed)", fields[0])
	}
}

func (e *Executor) bashMkdir(args []string) *Result {
	var path string
	for _, a := range args {
		if a == "-p" {
			continue
		}
		path = a
	}
	if path == "" {
		return failf("mkdir requires a path")
	}
	if err := e.vfs.Mkdir(path); err != nil {
		return fail(err)
	}
	return ok("created " + path)
}

func (e *Executor) bashLs(args []string) *Result {
	path := e.workingDir
	if len(args) > 0 {
		path = args[0]
	}
	entries, err := e.vfs.List(path)
	if err != nil {
		return fail(err)
	}
	return ok(formatListing(e.vfs, path, entries))
}
