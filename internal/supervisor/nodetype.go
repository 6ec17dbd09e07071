package supervisor

import "fmt"

// NodeType tags the role a node plays in the fleet.
type NodeType int

// Recognized node types.
const (
	NodeGeneric NodeType = iota
	NodeDriver
	NodePerception
	NodeControl
	NodeBehavior
	NodeInfrastructure
	NodeDebug
)

var nodeTypeNames = map[NodeType]string{
	NodeGeneric:        "generic",
	NodeDriver:         "driver",
	NodePerception:     "perception",
	NodeControl:        "control",
	NodeBehavior:       "behavior",
	NodeInfrastructure: "infrastructure",
	NodeDebug:          "debug",
}

// String returns the lowercase tag name.
func (t NodeType) String() string {
	if name, ok := nodeTypeNames[t]; ok {
		return name
	}
	return "invalid"
}

func (t NodeType) valid() bool {
	_, ok := nodeTypeNames[t]
	return ok
}

// ParseNodeType resolves a tag name to a NodeType. Unknown names return
// ErrInvalidNodeType.
func ParseNodeType(name string) (NodeType, error) {
	for t, n := range nodeTypeNames {
		if n == name {
			return t, nil
		}
	}
	return NodeGeneric, fmt.Errorf("%w: %q", ErrInvalidNodeType, name)
}
