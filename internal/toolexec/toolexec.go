// Package toolexec dispatches the fixed tool catalog an agent session
// exposes to the LLM (read_file, write_file, edit_file, list_files,
// glob_pattern, bash_command, execute_command, ask_user, invoke_agent,
// todo_read, todo_write) against the VFS and, for execute_command, the
// guarded external command executor. It replaces the teacher's
// host-filesystem tool package (internal/tool) one tool at a time; Execute
// dispatches on the tool name with a single switch.
package toolexec

import (
	"context"
	"fmt"
	"sort"

	"github.com/bmadforge/runtime/internal/cmdexec"
	"github.com/bmadforge/runtime/internal/vfs"
	"github.com/bmadforge/runtime/pkg/types"
)

// Result is the uniform outcome of a tool dispatch (§4.3). The LLM never
// sees a raw Go error — only this shape, rendered into a tool_result block.
type Result struct {
	Success  bool
	Content  string
	Error    string
	Metadata map[string]any
}

func ok(content string) *Result  { return &Result{Success: true, Content: content} }
func fail(err error) *Result     { return &Result{Success: false, Error: err.Error()} }
func failf(format string, a ...any) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, a...)}
}

// AgentInvoker runs a nested session for invoke_agent. The session engine
// implements this; toolexec depends only on the narrow interface to avoid an
// import cycle between internal/session and internal/toolexec.
type AgentInvoker interface {
	InvokeAgent(ctx context.Context, agentID, command string, invokeCtx map[string]any) (*Result, error)
}

// AskUserGate suspends the owning session until the host answers a question
// (§4.6 pause/resume). The session engine implements this.
type AskUserGate interface {
	AskUser(ctx context.Context, question, askCtx string) (string, error)
}

// Executor holds the collaborators every tool dispatch may need and exposes
// the fixed catalog via Execute.
type Executor struct {
	vfs         *vfs.VFS
	cmdExecutor *cmdexec.Executor
	invoker     AgentInvoker
	askGate     AskUserGate
	workingDir  string
}

// New builds an Executor. cmdExecutor and invoker may be nil, disabling
// execute_command and invoke_agent respectively; askGate may be nil only in
// tests that never call ask_user.
func New(v *vfs.VFS, cmdExecutor *cmdexec.Executor, invoker AgentInvoker, askGate AskUserGate) *Executor {
	return &Executor{vfs: v, cmdExecutor: cmdExecutor, invoker: invoker, askGate: askGate, workingDir: "/"}
}

// Execute dispatches name against input, returning a uniform Result and never
// a raw error — per §4.3, internal failures are caught and converted.
func (e *Executor) Execute(ctx context.Context, name string, input map[string]any) *Result {
	switch name {
	case "read_file":
		return e.readFile(input)
	case "write_file":
		return e.writeFile(input)
	case "edit_file":
		return e.editFile(input)
	case "list_files":
		return e.listFiles(input)
	case "glob_pattern":
		return e.globPattern(input)
	case "bash_command":
		return e.bashCommand(input)
	case "execute_command":
		return e.executeCommand(ctx, input)
	case "ask_user":
		return e.askUser(ctx, input)
	case "invoke_agent":
		return e.invokeAgent(ctx, input)
	case "todo_read":
		return e.todoRead(input)
	case "todo_write":
		return e.todoWrite(input)
	default:
		return failf("Unknown tool: %s", name)
	}
}

func stringArg(input map[string]any, key string) (string, bool) {
	v, ok := input[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (e *Executor) readFile(input map[string]any) *Result {
	path, present := stringArg(input, "file_path")
	if !present || path == "" {
		return failf("read_file requires file_path")
	}
	content, err := e.vfs.Read(path)
	if err != nil {
		return fail(err)
	}
	return ok(content)
}

func (e *Executor) writeFile(input map[string]any) *Result {
	path, present := stringArg(input, "file_path")
	if !present || path == "" {
		return failf("write_file requires file_path")
	}
	content, _ := stringArg(input, "content")
	if err := e.vfs.Write(path, content); err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("wrote %d bytes to %s", len(content), path))
}

func (e *Executor) editFile(input map[string]any) *Result {
	path, present := stringArg(input, "file_path")
	if !present || path == "" {
		return failf("edit_file requires file_path")
	}
	oldString, hasOld := stringArg(input, "old_string")
	if !hasOld {
		return failf("edit_file requires old_string")
	}
	newString, _ := stringArg(input, "new_string")
	if err := e.vfs.Edit(path, oldString, newString); err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("edited %s", path))
}

func (e *Executor) listFiles(input map[string]any) *Result {
	path, present := stringArg(input, "path")
	if !present || path == "" {
		path = "/"
	}
	entries, err := e.vfs.List(path)
	if err != nil {
		return fail(err)
	}
	return ok(formatListing(e.vfs, path, entries))
}

func formatListing(v *vfs.VFS, dirPath string, entries []string) string {
	if len(entries) == 0 {
		return fmt.Sprintf("%s is empty", dirPath)
	}
	var lines []string
	for _, name := range entries {
		if len(name) > 0 && name[len(name)-1] == '/' {
			lines = append(lines, name)
			continue
		}
		full := dirPath
		if full != "/" {
			full += "/"
		}
		full += name
		size := 0
		if stat, err := v.Stat(full); err == nil {
			size = stat.SizeBytes
		}
		lines = append(lines, fmt.Sprintf("%s (%d bytes)", name, size))
	}
	sort.Strings(lines)
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func (e *Executor) globPattern(input map[string]any) *Result {
	pattern, present := stringArg(input, "pattern")
	if !present || pattern == "" {
		return failf("glob_pattern requires pattern")
	}
	base, _ := stringArg(input, "path")
	matches, err := e.vfs.Glob(pattern, base)
	if err != nil {
		return fail(err)
	}
	if len(matches) == 0 {
		return ok("no matches")
	}
	out := ""
	for i, m := range matches {
		if i > 0 {
			out += "\n"
		}
		out += m
	}
	return ok(out)
}

func (e *Executor) askUser(ctx context.Context, input map[string]any) *Result {
	if e.askGate == nil {
		return failf("ask_user is not available in this context")
	}
	question, present := stringArg(input, "question")
	if !present || question == "" {
		return failf("ask_user requires question")
	}
	askCtx, _ := stringArg(input, "context")
	answer, err := e.askGate.AskUser(ctx, question, askCtx)
	if err != nil {
		return fail(err)
	}
	return ok(answer)
}

func (e *Executor) invokeAgent(ctx context.Context, input map[string]any) *Result {
	if e.invoker == nil {
		return failf("invoke_agent is not available in this context")
	}
	agentID, present := stringArg(input, "agent_id")
	if !present || agentID == "" {
		return failf("invoke_agent requires agent_id")
	}
	command, present := stringArg(input, "command")
	if !present || command == "" {
		return failf("invoke_agent requires command")
	}
	var invokeCtx map[string]any
	if raw, ok := input["context"].(map[string]any); ok {
		invokeCtx = raw
	}
	result, err := e.invoker.InvokeAgent(ctx, agentID, command, invokeCtx)
	if err != nil {
		return fail(err)
	}
	return result
}

// Catalog returns the fixed tool declarations (§4.3) for inclusion in the
// system prompt and the provider's tool list. execute_command, ask_user, and
// invoke_agent are included even when their backing collaborator is absent;
// dispatch still rejects the call with a clear error, matching the "surfaced
// to the LLM as tool failures" policy in §7 rather than omitting the tool
// and confusing the model about why it vanished.
func Catalog() []types.Tool {
	return []types.Tool{
		{
			Name:        "read_file",
			Description: "Read the full content of a file at an absolute VFS path.",
			InputSchema: schema(props{"file_path": prop("string", "Absolute path to read.")}, "file_path"),
		},
		{
			Name:        "write_file",
			Description: "Create or overwrite a file at an absolute VFS path with the given content.",
			InputSchema: schema(props{
				"file_path": prop("string", "Absolute path to write."),
				"content":   prop("string", "Full file content."),
			}, "file_path", "content"),
		},
		{
			Name:        "edit_file",
			Description: "Replace a unique occurrence of old_string with new_string in an existing file. Always read_file first.",
			InputSchema: schema(props{
				"file_path":  prop("string", "Absolute path to edit."),
				"old_string": prop("string", "Exact text to replace; must occur exactly once."),
				"new_string": prop("string", "Replacement text."),
			}, "file_path", "old_string", "new_string"),
		},
		{
			Name:        "list_files",
			Description: "List the direct children of a directory path, with sizes.",
			InputSchema: schema(props{"path": prop("string", "Absolute directory path.")}, "path"),
		},
		{
			Name:        "glob_pattern",
			Description: "Find files matching a glob pattern (supports *, **, ?, [...]), lexically sorted.",
			InputSchema: schema(props{
				"pattern": prop("string", "Glob pattern, e.g. \"/.bmad-core/agents/*.md\"."),
				"path":    prop("string", "Base path the pattern is resolved against, if not already absolute."),
			}, "pattern"),
		},
		{
			Name:        "bash_command",
			Description: "Run a restricted VFS-only command: mkdir [-p] PATH, ls [PATH], pwd, echo ARGS...",
			InputSchema: schema(props{
				"command":     prop("string", "The restricted command line to run."),
				"description": prop("string", "Optional human-readable description."),
			}, "command"),
		},
		{
			Name:        "execute_command",
			Description: "Run an external whitelisted command (e.g. a document converter). Disabled unless configured.",
			InputSchema: schema(props{
				"command":           prop("string", "Executable name; must be in the configured whitelist."),
				"args":              prop("array", "Argument vector."),
				"working_directory": prop("string", "Directory the command runs in."),
			}, "command"),
		},
		{
			Name:        "ask_user",
			Description: "Suspend the session and ask the host a clarifying question.",
			InputSchema: schema(props{
				"question": prop("string", "The question to ask."),
				"context":  prop("string", "Optional supporting context."),
			}, "question"),
		},
		{
			Name:        "invoke_agent",
			Description: "Delegate a command to another agent as a nested session.",
			InputSchema: schema(props{
				"agent_id": prop("string", "Id of the agent to invoke."),
				"command":  prop("string", "Command for the nested session to execute."),
				"context":  prop("object", "Optional additional context."),
			}, "agent_id", "command"),
		},
		{
			Name:        "todo_read",
			Description: "Read the current todo list.",
			InputSchema: schema(props{}),
		},
		{
			Name:        "todo_write",
			Description: "Replace the todo list with the given items.",
			InputSchema: schema(props{
				"items": prop("array", "Todo items, each with content and status."),
			}, "items"),
		},
	}
}

type props map[string]map[string]any

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func schema(properties props, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": map[string]any(properties),
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
