package event

import (
	"time"

	"github.com/viant/strider/internal/clock"
)

// Event types published by the runtime.
const (
	TypeTaskCreated = "task.created"
	TypeTaskState   = "task.state"
	TypeTaskExited  = "task.exited"
	TypeTaskKilled  = "task.killed"
)

type Context struct {
	TaskID    string `json:"taskID"`
	PID       uint64 `json:"pid"`
	EventType string `json:"eventType"`
}

type Event[T any] struct {
	Context   *Context  `json:"context"`
	CreatedAt time.Time `json:"createdAt"`
	Data      T         `json:"data"`
}

// TaskEvent describes a task transition.
type TaskEvent struct {
	Name     string `json:"name"`
	From     string `json:"from"`
	To       string `json:"to"`
	Priority int64  `json:"priority"`
	Stride   int64  `json:"stride"`
	Code     int32  `json:"code"`
	Fault    string `json:"fault,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Data:      data,
	}
}
