// Package strategies holds the built-in trading strategies and the registry
// the CLI builds them from. Each strategy declares a typed parameter struct;
// loose parameters from config files are decoded strictly, so a misspelled
// key fails fast instead of silently running with defaults.
package strategies

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"marketsim/backtest"
)

// Factory builds a configured strategy instance from loose parameters.
type Factory func(params map[string]any) (backtest.Strategy, error)

var registry = map[string]Factory{}

// Register adds a factory under name. Built-ins register from init; callers
// may add their own before resolving names.
func Register(name string, f Factory) {
	registry[normalize(name)] = f
}

// New builds the named strategy. Matching is case-insensitive.
func New(name string, params map[string]any) (backtest.Strategy, error) {
	f, ok := registry[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("strategies: unknown strategy %q (have: %s)",
			name, strings.Join(Names(), ", "))
	}
	return f(params)
}

// Names lists the registered strategies, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DecodeParams maps loose parameters onto a strategy's typed config,
// rejecting any key the config does not define.
func DecodeParams(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("strategies: encoding params: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("strategies: invalid params: %w", err)
	}
	return nil
}
