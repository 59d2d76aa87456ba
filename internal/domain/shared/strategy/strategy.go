// Package strategy describes pluggable matching strategies. Implementations live next to the
// engine that runs them; this package only carries their identity.
package strategy

// Evidence says how a strategy knows two records belong together
type Evidence string

const (
	// EvidenceReference means one record stores the other's id
	EvidenceReference Evidence = "reference"
	// EvidenceHeuristic means the pairing is inferred from shared attributes
	EvidenceHeuristic Evidence = "heuristic"
)

// Strategy is implemented by every matching strategy
type Strategy interface {
	Name() string
	Description() string
	Evidence() Evidence
}

// Descriptor is an embeddable Strategy identity
type Descriptor struct {
	name        string
	description string
	evidence    Evidence
}

// Reference describes a strategy that follows stored ids
func Reference(name, description string) Descriptor {
	return Descriptor{name: name, description: description, evidence: EvidenceReference}
}

// Heuristic describes a strategy that infers pairs
func Heuristic(name, description string) Descriptor {
	return Descriptor{name: name, description: description, evidence: EvidenceHeuristic}
}

func (d Descriptor) Name() string        { return d.name }
func (d Descriptor) Description() string { return d.description }
func (d Descriptor) Evidence() Evidence  { return d.evidence }
