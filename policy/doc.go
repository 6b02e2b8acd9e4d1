// Package policy provides optional per-task rules restricting which syscalls
// a program may issue. A task without a policy may call everything.
package policy
