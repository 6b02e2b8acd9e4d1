// Package syscall is the trap surface of the kernel. Dispatch counts the call
// against the current task, applies the task policy (denied calls return -1) and routes it to a
// handler; handlers report user errors as -1 and raise faults for conditions
// that must kill the task.
package syscall
