package toolexec

import (
	"context"
	"fmt"
)

// executeCommand dispatches to the guarded external command executor
// (§4.4). Disabled (returns a tool failure, not a session failure) unless a
// cmdexec.Executor was configured.
func (e *Executor) executeCommand(ctx context.Context, input map[string]any) *Result {
	if e.cmdExecutor == nil {
		return failf("execute_command is disabled: no external command executor configured")
	}

	command, present := stringArg(input, "command")
	if !present || command == "" {
		return failf("execute_command requires command")
	}

	var args []string
	if raw, ok := input["args"].([]any); ok {
		for _, a := range raw {
			s, isStr := a.(string)
			if !isStr {
				return failf("execute_command args must all be strings")
			}
			args = append(args, s)
		}
	}

	workDir, _ := stringArg(input, "working_directory")
	if workDir == "" {
		workDir = e.workingDir
	}

	result, err := e.cmdExecutor.Execute(ctx, command, args, workDir)
	if err != nil {
		return fail(err)
	}

	meta := map[string]any{
		"exitCode": result.ExitCode,
		"timedOut": result.TimedOut,
		"stderr":   result.Stderr,
	}
	if !result.Success {
		return &Result{Success: false, Error: fmt.Sprintf("command failed (exit %d): %s", result.ExitCode, result.Stderr), Metadata: meta}
	}
	return &Result{Success: true, Content: result.Stdout, Metadata: meta}
}
