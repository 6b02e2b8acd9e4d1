package program

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/strider/model/abi"
	"github.com/viant/strider/model/program"
)

type call struct {
	id   uint64
	args []uint64
}

type fakeEnv struct {
	calls  []call
	words  map[uint64]uint64
	result int64
}

func (f *fakeEnv) Syscall(id uint64, args ...uint64) int64 {
	f.calls = append(f.calls, call{id: id, args: args})
	return f.result
}

func (f *fakeEnv) Load(va uint64) uint64 { return f.words[va] }

func (f *fakeEnv) Store(va uint64, value uint64) { f.words[va] = value }

func mustParse(t *testing.T, texts ...string) []*program.Step {
	var steps []*program.Step
	for _, text := range texts {
		step, err := program.ParseStep(text)
		require.NoError(t, err, text)
		steps = append(steps, step)
	}
	return steps
}

func TestRunner_Step(t *testing.T) {
	definition := &program.Definition{Name: "demo", Steps: mustParse(t,
		"spin(3)",
		"store(0x1000, 42)",
		"load(0x1000) == 42",
		"load(0x1000) == 7",
		"yield() * 2",
		"mmap(0x10000000, 4096, 3) == 0",
	)}
	env := &fakeEnv{words: map[uint64]uint64{}, result: -1}
	runner := New(definition)

	count := 0
	for runner.Step(context.Background(), env) {
		count++
		require.Less(t, count, 100)
	}
	assert.Equal(t, 3+1+1+1+2+1, count)
	assert.Equal(t, uint64(count), runner.Steps())
	assert.Equal(t, uint64(42), env.words[0x1000])
	require.Len(t, env.calls, 3)
	assert.Equal(t, abi.SysYield, env.calls[0].id)
	assert.Equal(t, abi.SysMmap, env.calls[2].id)
	assert.Equal(t, []uint64{0x10000000, 4096, 3}, env.calls[2].args)
	assert.Equal(t, []string{
		"step[3] load: expected 7, got 42",
		"step[5] mmap: expected 0, got -1",
	}, runner.Failures())

	assert.False(t, runner.Step(context.Background(), env), "finished runner stays finished")
}

func TestRunner_NegativeArgs(t *testing.T) {
	definition := &program.Definition{Name: "brk", Steps: mustParse(t, "sbrk(-4096) == -1")}
	env := &fakeEnv{result: -1}
	runner := New(definition)
	assert.True(t, runner.Step(context.Background(), env))
	assert.Equal(t, ^uint64(4095), env.calls[0].args[0])
	assert.Empty(t, runner.Failures())
}

func TestRunner_UnknownCall(t *testing.T) {
	definition := &program.Definition{Name: "bad", Steps: []*program.Step{{Call: "fork"}}}
	env := &fakeEnv{}
	assert.True(t, New(definition).Step(context.Background(), env))
	assert.Equal(t, ^uint64(0), env.calls[0].id)
}
