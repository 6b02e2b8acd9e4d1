package program

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/strider/internal/yml"
	"github.com/viant/strider/model/program"
	"github.com/viant/strider/policy"
	"github.com/viant/strider/service/meta"
	"gopkg.in/yaml.v3"
)

// Service loads program definitions from YAML.
type Service struct {
	metaService  *meta.Service
	cacheEnabled bool
	mux          sync.RWMutex
	cache        map[string]*program.Definition
}

// DecodeYAML decodes a program from YAML
func (s *Service) DecodeYAML(encoded []byte) (*program.Definition, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(encoded, &node); err != nil {
		return nil, err
	}
	return s.ParseProgram("", &node)
}

// Load loads a program from YAML at the specified URL
func (s *Service) Load(ctx context.Context, URL string) (*program.Definition, error) {
	if filepath.Ext(URL) == "" {
		URL += ".yaml"
	}
	if s.cacheEnabled {
		s.mux.RLock()
		cached, ok := s.cache[URL]
		s.mux.RUnlock()
		if ok {
			return cached, nil
		}
	}
	var node yaml.Node
	if err := s.metaService.Load(ctx, URL, &node); err != nil {
		return nil, fmt.Errorf("failed to load program from %s: %w", URL, err)
	}
	definition, err := s.ParseProgram(URL, &node)
	if err != nil {
		return nil, err
	}
	if s.cacheEnabled {
		s.mux.Lock()
		s.cache[URL] = definition
		s.mux.Unlock()
	}
	return definition, nil
}

// ParseProgram converts a YAML node into a validated definition
func (s *Service) ParseProgram(URL string, node *yaml.Node) (*program.Definition, error) {
	definition := &program.Definition{URL: URL}
	if err := parseDefinition((*yml.Node)(node).Root(), definition); err != nil {
		return nil, fmt.Errorf("failed to parse program %s: %w", URL, err)
	}
	if definition.Name == "" {
		definition.Name = nameFromURL(URL)
	}
	if err := definition.Validate(); err != nil {
		return nil, fmt.Errorf("invalid program %s: %w", definition.Name, err)
	}
	return definition, nil
}

func nameFromURL(URL string) string {
	base := filepath.Base(URL)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func parseDefinition(node *yml.Node, definition *program.Definition) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected mapping", node.Line)
	}
	return node.Pairs(func(key string, valueNode *yml.Node) error {
		var err error
		switch strings.ToLower(key) {
		case "name":
			definition.Name = valueNode.Value
		case "priority":
			definition.Priority, err = valueNode.Int64()
		case "policy":
			definition.Policy, err = parsePolicy(valueNode)
		case "steps":
			definition.Steps, err = parseSteps(valueNode)
		default:
			err = fmt.Errorf("line %d: unsupported key %q", valueNode.Line, key)
		}
		return err
	})
}

func parsePolicy(node *yml.Node) (*policy.Config, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: policy: expected mapping", node.Line)
	}
	ret := &policy.Config{}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "mode":
			ret.Mode = strings.ToLower(valueNode.Value)
		case "allow":
			ret.AllowList = valueNode.Strings()
		case "block":
			ret.BlockList = valueNode.Strings()
		default:
			return fmt.Errorf("line %d: policy: unsupported key %q", valueNode.Line, key)
		}
		return nil
	})
	return ret, err
}

func parseSteps(node *yml.Node) ([]*program.Step, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: steps: expected sequence", node.Line)
	}
	var steps []*program.Step
	err := node.Items(func(index int, item *yml.Node) error {
		step, err := parseStep(item)
		if err != nil {
			return fmt.Errorf("step[%d]: %w", index, err)
		}
		steps = append(steps, step)
		return nil
	})
	return steps, err
}

// parseStep accepts either the compact form "call(args) == expect * repeat"
// or a mapping with call, args, expect and repeat keys.
func parseStep(node *yml.Node) (*program.Step, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return program.ParseStep(node.Value)
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("line %d: expected scalar or mapping", node.Line)
	}
	step := &program.Step{}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "call":
			step.Call = valueNode.Value
		case "args":
			if valueNode.Kind == yaml.ScalarNode {
				value, err := valueNode.Int64()
				if err != nil {
					return err
				}
				step.Args = []int64{value}
				return nil
			}
			return valueNode.Items(func(_ int, arg *yml.Node) error {
				value, err := arg.Int64()
				if err != nil {
					return err
				}
				step.Args = append(step.Args, value)
				return nil
			})
		case "expect":
			value, err := valueNode.Int64()
			if err != nil {
				return err
			}
			step.Expect = &value
		case "repeat":
			value, err := valueNode.Int64()
			if err != nil {
				return err
			}
			step.Repeat = int(value)
		default:
			return fmt.Errorf("line %d: unsupported key %q", valueNode.Line, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return step, step.Validate()
}

// New creates a program loader
func New(opts ...Option) *Service {
	ret := &Service{
		metaService: meta.New(afs.New(), ""),
		cache:       map[string]*program.Definition{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
