package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStep(t *testing.T) {
	expect := func(v int64) *int64 { return &v }
	testCases := []struct {
		description string
		input       string
		expected    *Step
		shouldError bool
	}{
		{
			description: "syscall without args",
			input:       "yield()",
			expected:    &Step{Call: "yield"},
		},
		{
			description: "hex and decimal args with expectation",
			input:       "mmap(0x10000000, 4096, 3) == 0",
			expected:    &Step{Call: "mmap", Args: []int64{0x10000000, 4096, 3}, Expect: expect(0)},
		},
		{
			description: "negative expectation and repeat",
			input:       "  munmap(0x20000000,4096)==-1 * 2 ",
			expected:    &Step{Call: "munmap", Args: []int64{0x20000000, 4096}, Expect: expect(-1), Repeat: 2},
		},
		{
			description: "repeat without expectation",
			input:       "yield() * 3",
			expected:    &Step{Call: "yield", Repeat: 3},
		},
		{
			description: "negative arg",
			input:       "sbrk(-4096)",
			expected:    &Step{Call: "sbrk", Args: []int64{-4096}},
		},
		{
			description: "user operation",
			input:       "store(0x10000000, 42)",
			expected:    &Step{Call: "store", Args: []int64{0x10000000, 42}},
		},
		{
			description: "missing paren",
			input:       "yield",
			shouldError: true,
		},
		{
			description: "trailing comma",
			input:       "mmap(1,)",
			shouldError: true,
		},
		{
			description: "trailing garbage",
			input:       "yield() yield()",
			shouldError: true,
		},
		{
			description: "unknown call",
			input:       "fork()",
			shouldError: true,
		},
		{
			description: "too many args",
			input:       "exit(1, 2, 3, 4)",
			shouldError: true,
		},
		{
			description: "bad arity for user operation",
			input:       "load()",
			shouldError: true,
		},
	}

	for _, testCase := range testCases {
		actual, err := ParseStep(testCase.input)
		if testCase.shouldError {
			assert.Error(t, err, testCase.description)
			continue
		}
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expected, actual, testCase.description)
	}
}

func TestParseInt(t *testing.T) {
	value, err := ParseInt("0xffffffffffffffff")
	assert.NoError(t, err)
	assert.Equal(t, int64(-1), value)

	value, err = ParseInt("-0x10")
	assert.NoError(t, err)
	assert.Equal(t, int64(-16), value)

	_, err = ParseInt("12z")
	assert.Error(t, err)
}

func TestDefinition_Validate(t *testing.T) {
	definition := &Definition{
		Priority: 1,
		Steps: []*Step{
			{Call: "yield"},
			nil,
			{Call: "spawn"},
		},
	}
	err := definition.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "name was empty")
	assert.Contains(t, err.Error(), "invalid priority")
	assert.Contains(t, err.Error(), "step[1] was empty")
	assert.Contains(t, err.Error(), "step[2]")

	valid := &Definition{Name: "ok", Steps: []*Step{{Call: "exit", Args: []int64{0}}}}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, "exit(0)", valid.Steps[0].String())
}
