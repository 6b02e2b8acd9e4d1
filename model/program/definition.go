package program

import (
	"errors"
	"fmt"

	"github.com/viant/strider/model/abi"
	"github.com/viant/strider/policy"
)

// User-mode operations a step may run instead of a syscall.
const (
	OpStore = "store" // store(va, value)
	OpLoad  = "load"  // load(va)
	OpSpin  = "spin"  // spin([n]) burns n steps without trapping
)

var opArity = map[string][2]int{
	OpStore: {2, 2},
	OpLoad:  {1, 1},
	OpSpin:  {0, 1},
}

// Definition is a user program described declaratively.
type Definition struct {
	URL      string         `yaml:"-" json:"url,omitempty"`
	Name     string         `yaml:"name" json:"name"`
	Priority int64          `yaml:"priority,omitempty" json:"priority,omitempty"`
	Policy   *policy.Config `yaml:"policy,omitempty" json:"policy,omitempty"`
	Steps    []*Step        `yaml:"steps" json:"steps"`
}

// Step is one instruction: a syscall by name or a user-mode operation.
type Step struct {
	Call string  `yaml:"call" json:"call"`
	Args []int64 `yaml:"args,omitempty" json:"args,omitempty"`
	// Expect, when set, is compared with the result of the call.
	Expect *int64 `yaml:"expect,omitempty" json:"expect,omitempty"`
	// Repeat runs the step that many times; zero means once.
	Repeat int `yaml:"repeat,omitempty" json:"repeat,omitempty"`
}

// Times returns how many times the step runs.
func (s *Step) Times() int {
	if s.Repeat <= 0 {
		return 1
	}
	return s.Repeat
}

// Syscall returns the syscall id of the step, if it is a syscall.
func (s *Step) Syscall() (uint64, bool) {
	return abi.SyscallID(s.Call)
}

// Registers converts the arguments into syscall registers.
func (s *Step) Registers() []uint64 {
	ret := make([]uint64, len(s.Args))
	for i, arg := range s.Args {
		ret[i] = uint64(arg)
	}
	return ret
}

func (s *Step) String() string {
	ret := s.Call + "("
	for i, arg := range s.Args {
		if i > 0 {
			ret += ", "
		}
		ret += fmt.Sprintf("%d", arg)
	}
	ret += ")"
	if s.Expect != nil {
		ret += fmt.Sprintf(" == %d", *s.Expect)
	}
	if s.Repeat > 1 {
		ret += fmt.Sprintf(" * %d", s.Repeat)
	}
	return ret
}

// Validate checks the call name and argument count.
func (s *Step) Validate() error {
	if s.Repeat < 0 {
		return fmt.Errorf("%v: negative repeat", s.Call)
	}
	if _, ok := s.Syscall(); ok {
		if len(s.Args) > 3 {
			return fmt.Errorf("%v: expected at most 3 args, got %d", s.Call, len(s.Args))
		}
		return nil
	}
	arity, ok := opArity[s.Call]
	if !ok {
		return fmt.Errorf("unknown call: %q", s.Call)
	}
	if len(s.Args) < arity[0] || len(s.Args) > arity[1] {
		return fmt.Errorf("%v: invalid number of args: %d", s.Call, len(s.Args))
	}
	return nil
}

// Validate checks the definition; all issues are joined.
func (d *Definition) Validate() error {
	var issues []error
	if d.Name == "" {
		issues = append(issues, errors.New("program name was empty"))
	}
	if d.Priority != 0 && d.Priority < 2 {
		issues = append(issues, fmt.Errorf("invalid priority: %d", d.Priority))
	}
	for i, step := range d.Steps {
		if step == nil {
			issues = append(issues, fmt.Errorf("step[%d] was empty", i))
			continue
		}
		if err := step.Validate(); err != nil {
			issues = append(issues, fmt.Errorf("step[%d]: %w", i, err))
		}
	}
	return errors.Join(issues...)
}
