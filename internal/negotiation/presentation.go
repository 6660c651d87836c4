package negotiation

import (
	"fmt"
	"strings"

	"maestro/internal/strategy"
)

// RatedOption is an option with its constraint verdict, ready to present.
type RatedOption struct {
	ID         string // selection label: A, B, C, ...
	Option     strategy.Option
	Status     strategy.Status
	Violations []strategy.Violation
	Advisories []string
}

// Presentation is the rated option set shown to the user in one turn.
// ShowAll distinguishes the full comparison view from the single
// recommendation view; the underlying set is identical, so selection labels
// stay valid either way.
type Presentation struct {
	Options     []RatedOption
	Recommended int // index into Options
	ShowAll     bool
}

// ByID finds a rated option by its selection label, case-insensitively.
func (p *Presentation) ByID(id string) (*RatedOption, bool) {
	id = strings.ToUpper(strings.TrimSpace(id))
	for i := range p.Options {
		if p.Options[i].ID == id {
			return &p.Options[i], true
		}
	}
	return nil, false
}

// ValidIDs lists the selection labels in presentation order.
func (p *Presentation) ValidIDs() []string {
	ids := make([]string, len(p.Options))
	for i, ro := range p.Options {
		ids[i] = ro.ID
	}
	return ids
}

// RecommendedOption returns the recommended entry.
func (p *Presentation) RecommendedOption() *RatedOption {
	return &p.Options[p.Recommended]
}

// rate builds a Presentation from a synthesized option set.
func rate(options []strategy.Option, c strategy.Constraint, showAll bool) *Presentation {
	p := &Presentation{ShowAll: showAll}
	for i, opt := range options {
		status, violations := strategy.Evaluate(opt, c)
		p.Options = append(p.Options, RatedOption{
			ID:         fmt.Sprintf("%c", 'A'+i),
			Option:     opt,
			Status:     status,
			Violations: violations,
			Advisories: strategy.Advisories(opt, c),
		})
		if opt.Recommended {
			p.Recommended = i
		}
	}
	return p
}
