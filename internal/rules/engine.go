// internal/rules/engine.go
package rules

import (
	"slices"

	"github.com/solatis/blockvis/internal/types"
)

// DefaultRestrictedBlocks never carry visibility rules: reusable block
// references, classic/shortcode content, templates and page breaks.
var DefaultRestrictedBlocks = []string{
	"core/block",
	"core/freeform",
	"core/shortcode",
	"core/template",
	"core/nextpage",
}

// IsRestrictedBlock reports whether blockType is one of the
// DefaultRestrictedBlocks.
func IsRestrictedBlock(blockType string) bool {
	return slices.Contains(DefaultRestrictedBlocks, blockType)
}

// Engine binds the feature switches and restricted block types used by the
// service. The package-level functions stay usable without one.
type Engine struct {
	features   Features
	restricted map[string]bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithFeatures overrides the enabled rule families.
func WithFeatures(f Features) Option {
	return func(e *Engine) { e.features = f }
}

// WithRestrictedBlocks replaces the restricted block types.
func WithRestrictedBlocks(names ...string) Option {
	return func(e *Engine) {
		e.restricted = make(map[string]bool, len(names))
		for _, n := range names {
			e.restricted[n] = true
		}
	}
}

// NewEngine creates a rules engine with every family enabled.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{features: AllFeatures()}
	WithRestrictedBlocks(DefaultRestrictedBlocks...)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Features returns the enabled rule families.
func (e *Engine) Features() Features {
	return e.features
}

// IsRestricted reports whether blockType is exempt from visibility rules.
func (e *Engine) IsRestricted(blockType string) bool {
	return e.restricted[blockType]
}

// Evaluation is the render-pipeline view of one block.
type Evaluation struct {
	Decision
	ClassName string // class name with state classes applied
	Migration Result
}

// Decide evaluates rs for a block of blockType.
func (e *Engine) Decide(blockType string, rs types.RuleSet, rc types.RenderingContext) Decision {
	if e.IsRestricted(blockType) {
		return Decision{Visible: true}
	}
	return decide(rs, rc, e.features)
}

// Evaluate migrates attrs in memory and decides. The returned class name
// carries the state classes for the render pipeline to attach.
func (e *Engine) Evaluate(blockType string, attrs types.Attributes, rc types.RenderingContext) Evaluation {
	res := Migrate(attrs)
	d := e.Decide(blockType, res.Rules, rc)
	return Evaluation{
		Decision:  d,
		ClassName: ApplyStateClasses(res.Attributes.ClassName(), d.StateClasses),
		Migration: res,
	}
}
