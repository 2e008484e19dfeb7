package toolexec

import (
	"encoding/json"
	"fmt"
)

// todoPath is the reserved VFS path the todo_read/todo_write tools read and
// write, riding the existing VFS machinery instead of a separate store.
const todoPath = "/.session/todo.json"

// TodoItem is one entry in the session's self-tracked plan.
type TodoItem struct {
	Content string `json:"content"`
	Status  string `json:"status"` // "pending" | "in_progress" | "completed"
}

func (e *Executor) todoRead(_ map[string]any) *Result {
	content, err := e.vfs.Read(todoPath)
	if err != nil {
		return ok("[]")
	}
	return ok(content)
}

func (e *Executor) todoWrite(input map[string]any) *Result {
	raw, present := input["items"]
	if !present {
		return failf("todo_write requires items")
	}
	items, ok2 := raw.([]any)
	if !ok2 {
		return failf("todo_write items must be an array")
	}

	todos := make([]TodoItem, 0, len(items))
	for _, it := range items {
		m, isMap := it.(map[string]any)
		if !isMap {
			return failf("todo_write item must be an object with content and status")
		}
		content, _ := m["content"].(string)
		status, _ := m["status"].(string)
		if status == "" {
			status = "pending"
		}
		todos = append(todos, TodoItem{Content: content, Status: status})
	}

	encoded, err := json.Marshal(todos)
	if err != nil {
		return fail(err)
	}
	if err := e.vfs.Write(todoPath, string(encoded)); err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("wrote %d todo items", len(todos)))
}
