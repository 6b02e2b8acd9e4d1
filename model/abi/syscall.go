package abi

// MaxSyscallNum bounds the syscall id space tracked per task.
const MaxSyscallNum = 500

// Syscall ids.
const (
	SysExit        uint64 = 93
	SysYield       uint64 = 124
	SysSetPriority uint64 = 140
	SysGetTime     uint64 = 169
	SysGetPid      uint64 = 172
	SysSbrk        uint64 = 214
	SysMunmap      uint64 = 215
	SysMmap        uint64 = 222
	SysTaskInfo    uint64 = 410
)

var syscallNames = map[uint64]string{
	SysExit:        "exit",
	SysYield:       "yield",
	SysSetPriority: "set_priority",
	SysGetTime:     "get_time",
	SysGetPid:      "getpid",
	SysSbrk:        "sbrk",
	SysMunmap:      "munmap",
	SysMmap:        "mmap",
	SysTaskInfo:    "task_info",
}

var syscallIDs = func() map[string]uint64 {
	ret := make(map[string]uint64, len(syscallNames))
	for id, name := range syscallNames {
		ret[name] = id
	}
	return ret
}()

// SyscallName returns the name of a syscall id, or "" when unknown.
func SyscallName(id uint64) string {
	return syscallNames[id]
}

// SyscallID looks up a syscall id by name.
func SyscallID(name string) (uint64, bool) {
	id, ok := syscallIDs[name]
	return id, ok
}
