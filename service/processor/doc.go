// Package processor runs tasks picked by the scheduler. It owns the "current
// task" slot, steps the current program for at most one time slice and then
// either preempts it, retires it or re-queues it depending on what the task
// did during its slice.
package processor
