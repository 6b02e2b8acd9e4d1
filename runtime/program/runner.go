// Package program runs declarative program definitions as task programs.
package program

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/strider/model/program"
	"github.com/viant/strider/runtime/task"
)

// Runner interprets a definition one step at a time.
type Runner struct {
	definition *program.Definition
	pc         int
	iteration  int
	spinLeft   int64
	steps      uint64
	mux        sync.Mutex
	failures   []string
}

// Definition returns the interpreted definition.
func (r *Runner) Definition() *program.Definition { return r.definition }

// Steps returns the number of executed steps.
func (r *Runner) Steps() uint64 {
	r.mux.Lock()
	defer r.mux.Unlock()
	return r.steps
}

// Failures returns the unmet expectations recorded so far.
func (r *Runner) Failures() []string {
	r.mux.Lock()
	defer r.mux.Unlock()
	return append([]string(nil), r.failures...)
}

// Step runs the current instruction. Running past the last step returns false.
func (r *Runner) Step(ctx context.Context, env task.Env) bool {
	if r.pc >= len(r.definition.Steps) {
		return false
	}
	index := r.pc
	step := r.definition.Steps[index]
	r.mux.Lock()
	r.steps++
	r.mux.Unlock()

	if step.Call == program.OpSpin {
		if r.spinLeft == 0 {
			r.spinLeft = 1
			if len(step.Args) > 0 && step.Args[0] > 1 {
				r.spinLeft = step.Args[0]
			}
		}
		r.spinLeft--
		if r.spinLeft > 0 {
			return true
		}
		r.advance(step)
		return true
	}

	// advance first: exit never hands control back to this task
	r.advance(step)
	switch step.Call {
	case program.OpStore:
		env.Store(uint64(step.Args[0]), uint64(step.Args[1]))
	case program.OpLoad:
		value := int64(env.Load(uint64(step.Args[0])))
		r.check(index, step, value)
	default:
		id, ok := step.Syscall()
		if !ok {
			// unknown names reach the trap and fault there
			id = ^uint64(0)
		}
		result := env.Syscall(id, step.Registers()...)
		r.check(index, step, result)
	}
	return true
}

func (r *Runner) advance(step *program.Step) {
	r.iteration++
	if r.iteration >= step.Times() {
		r.iteration = 0
		r.pc++
	}
}

func (r *Runner) check(index int, step *program.Step, actual int64) {
	if step.Expect == nil || *step.Expect == actual {
		return
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	r.failures = append(r.failures, fmt.Sprintf("step[%d] %v: expected %d, got %d", index, step.Call, *step.Expect, actual))
}

// New creates a runner for definition.
func New(definition *program.Definition) *Runner {
	return &Runner{definition: definition}
}
