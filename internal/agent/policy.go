package agent

import "encoding/json"

// Decision is the outcome of a tool-approval check. Input may be returned
// modified; backends pass the decided input to the tool unchanged otherwise.
type Decision struct {
	Allow bool
	Input json.RawMessage
}

// ToolPolicy is the capability the session driver holds for approving tool
// calls the agent proposes. The default policy always allows; the interface
// leaves room for a stricter policy without touching the drivers.
type ToolPolicy interface {
	Decide(tool string, input json.RawMessage) Decision

	// Tools returns the explicit allow-list, or nil when every tool is
	// permitted. CLI-style backends project this onto process flags since
	// approval happens inside the agent process there.
	Tools() []string
}

type allowAll struct{}

func (allowAll) Decide(_ string, input json.RawMessage) Decision {
	return Decision{Allow: true, Input: input}
}

func (allowAll) Tools() []string { return nil }

// AllowAll returns the default always-approve policy. This is a deliberate
// trust boundary, not a security gate: the agent only runs against a
// throwaway checkout.
func AllowAll() ToolPolicy { return allowAll{} }

type allowList struct {
	names map[string]struct{}
	order []string
}

// AllowList returns a policy permitting only the named tools.
func AllowList(names ...string) ToolPolicy {
	p := &allowList{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if _, seen := p.names[n]; seen {
			continue
		}
		p.names[n] = struct{}{}
		p.order = append(p.order, n)
	}
	return p
}

func (p *allowList) Decide(tool string, input json.RawMessage) Decision {
	_, ok := p.names[tool]
	return Decision{Allow: ok, Input: input}
}

func (p *allowList) Tools() []string { return p.order }
