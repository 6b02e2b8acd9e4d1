package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Permit(t *testing.T) {
	testCases := []struct {
		description string
		policy      *Policy
		syscall     string
		expect      bool
	}{
		{description: "nil policy", syscall: "mmap", expect: true},
		{description: "auto empty lists", policy: &Policy{Mode: ModeAuto}, syscall: "mmap", expect: true},
		{description: "blocked", policy: &Policy{BlockList: []string{"MMAP"}}, syscall: "mmap"},
		{description: "allow list hit", policy: &Policy{AllowList: []string{"yield", "get_time"}}, syscall: "get_time", expect: true},
		{description: "allow list miss", policy: &Policy{AllowList: []string{"yield"}}, syscall: "sbrk"},
		{description: "block beats allow", policy: &Policy{AllowList: []string{"sbrk"}, BlockList: []string{"sbrk"}}, syscall: "sbrk"},
		{description: "deny", policy: &Policy{Mode: ModeDeny}, syscall: "yield"},
		{description: "ask approves", policy: &Policy{Mode: ModeAsk, Ask: func(context.Context, string, []uint64, *Policy) bool { return true }}, syscall: "yield", expect: true},
		{description: "ask rejects", policy: &Policy{Mode: ModeAsk, Ask: func(context.Context, string, []uint64, *Policy) bool { return false }}, syscall: "yield"},
	}
	for _, testCase := range testCases {
		actual := testCase.policy.Permit(context.Background(), testCase.syscall, nil)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestConfig_RoundTrip(t *testing.T) {
	assert.Nil(t, ToConfig(nil))
	assert.Nil(t, FromConfig(nil))
	p := FromConfig(&Config{Mode: ModeAuto, BlockList: []string{"sbrk"}})
	assert.False(t, p.IsAllowed("sbrk"))
	assert.Equal(t, &Config{Mode: ModeAuto, BlockList: []string{"sbrk"}}, ToConfig(p))

	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
