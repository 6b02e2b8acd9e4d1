// Package strider is a hosted teaching kernel core: stride-scheduled tasks,
// each running in its own Sv39 address space backed by a simulated physical
// memory, talking to the kernel through a small syscall ABI.
//
// The main layers are:
//
//   - runtime/memory   - frames, page tables, address spaces, cross-space copy
//   - service/scheduler - stride scheduling over the ready queue
//   - service/processor - current task slot, time slices, fault containment
//   - service/syscall  - the syscall trap handlers
//   - runtime/program  - declarative YAML programs run as tasks
//
// Service wires them together from a Config:
//
//	srv, err := strider.New(strider.WithConfig(cfg))
//	rt := srv.Runtime()
//	definition, err := rt.LoadProgram(ctx, "programs/mmap.yaml")
//	_, err = rt.SpawnProgram(ctx, definition)
//	err = rt.Run(ctx)
package strider
