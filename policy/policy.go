package policy

import (
	"context"
	"strings"
)

// Modes recognised by the syscall layer.
const (
	ModeAsk  = "ask"  // consult Ask before every syscall
	ModeAuto = "auto" // filter by lists only (default)
	ModeDeny = "deny" // reject every filtered syscall
)

// AskFunc is invoked when Mode==ask. Returning true lets the syscall through.
type AskFunc func(ctx context.Context, syscall string, args []uint64, p *Policy) bool

// Policy restricts the syscalls of a task.
//
// A nil *Policy allows everything.
type Policy struct {
	Mode      string
	AllowList []string // empty => all
	BlockList []string
	Ask       AskFunc
}

// Config is the serialisable part of a Policy.
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:      p.Mode,
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy (without AskFunc).
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      c.Mode,
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// IsAllowed evaluates the lists by case-insensitive syscall name.
// BlockList wins over AllowList.
func (p *Policy) IsAllowed(syscall string) bool {
	if p == nil {
		return true
	}
	for _, b := range p.BlockList {
		if strings.EqualFold(syscall, b) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, a := range p.AllowList {
		if strings.EqualFold(syscall, a) {
			return true
		}
	}
	return false
}

// Permit combines the lists with the mode.
func (p *Policy) Permit(ctx context.Context, syscall string, args []uint64) bool {
	if p == nil {
		return true
	}
	switch strings.ToLower(p.Mode) {
	case ModeDeny:
		return false
	case ModeAsk:
		if !p.IsAllowed(syscall) {
			return false
		}
		return p.Ask == nil || p.Ask(ctx, syscall, args, p)
	}
	return p.IsAllowed(syscall)
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy, or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
