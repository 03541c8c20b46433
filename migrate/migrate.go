// Package migrate composes reversible schema migrations out of checked
// DDL statements. A migration pairs an up statement with the down
// statement that inverts its catalog transform; a plan chains
// migrations by catalog equality so the whole sequence type-checks
// before anything touches a database.
package migrate

import (
	"fmt"

	"github.com/quelgo/quel/catalog"
	"github.com/quelgo/quel/ddl"
)

// Migration is a named, reversible schema change. Labels are opaque;
// runners apply migrations in label order.
type Migration struct {
	Label string
	Up    *ddl.Statement
	Down  *ddl.Statement
}

// New builds a migration, verifying that down exactly inverts up: down
// must accept up's output catalog and produce up's input catalog.
func New(label string, up, down *ddl.Statement) (Migration, error) {
	if label == "" {
		return Migration{}, fmt.Errorf("migrate: empty label")
	}
	if !up.Out().Equal(down.In()) {
		return Migration{}, fmt.Errorf("migrate: %q: down does not start from up's result catalog", label)
	}
	if !down.Out().Equal(up.In()) {
		return Migration{}, fmt.Errorf("migrate: %q: down does not restore up's input catalog", label)
	}
	return Migration{Label: label, Up: up, Down: down}, nil
}

// In returns the catalog the migration applies to.
func (m Migration) In() catalog.Catalog { return m.Up.In() }

// Out returns the catalog after the migration has run.
func (m Migration) Out() catalog.Catalog { return m.Up.Out() }

// Plan is a chained sequence of migrations, itself a single
// input-to-output catalog transformation.
type Plan struct {
	steps []Migration
}

// NewPlan chains migrations: step i's output catalog must equal step
// i+1's input catalog, as values.
func NewPlan(steps ...Migration) (*Plan, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("migrate: empty plan")
	}
	for i := 1; i < len(steps); i++ {
		if !steps[i-1].Out().Equal(steps[i].In()) {
			return nil, fmt.Errorf("migrate: %q does not pick up where %q left off", steps[i].Label, steps[i-1].Label)
		}
	}
	return &Plan{steps: append([]Migration(nil), steps...)}, nil
}

// In returns the catalog the plan starts from.
func (p *Plan) In() catalog.Catalog { return p.steps[0].In() }

// Out returns the catalog the plan produces.
func (p *Plan) Out() catalog.Catalog { return p.steps[len(p.steps)-1].Out() }

// Steps returns the migrations in application order.
func (p *Plan) Steps() []Migration {
	return append([]Migration(nil), p.steps...)
}

// UpStatements returns the up statements in application order.
func (p *Plan) UpStatements() []*ddl.Statement {
	out := make([]*ddl.Statement, len(p.steps))
	for i, m := range p.steps {
		out[i] = m.Up
	}
	return out
}

// DownStatements returns the down statements in rollback order: the
// exact reverse of the up sequence.
func (p *Plan) DownStatements() []*ddl.Statement {
	out := make([]*ddl.Statement, len(p.steps))
	for i, m := range p.steps {
		out[len(p.steps)-1-i] = m.Down
	}
	return out
}
