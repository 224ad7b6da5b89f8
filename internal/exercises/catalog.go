package exercises

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

//go:embed catalog.toml
var defaultCatalogData []byte

var (
	ErrMoveNotFound = errors.New("move not found")
	ErrPlanNotFound = errors.New("plan not found")
)

type Catalog struct {
	MoveList []Move `toml:"moves"`
	PlanList []Plan `toml:"plans"`

	moves map[string]Move
	plans map[string]Plan
}

func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogData)
}

// LoadCatalog reads a catalog file; an empty path yields the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	c := &Catalog{}
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Warnf("catalog: ignoring unknown keys: %v", undecoded)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) index() error {
	c.moves = make(map[string]Move, len(c.MoveList))
	for _, m := range c.MoveList {
		if err := m.Validate(); err != nil {
			return err
		}
		if _, dup := c.moves[m.ID]; dup {
			return fmt.Errorf("duplicate move id: %s", m.ID)
		}
		c.moves[m.ID] = m
	}

	c.plans = make(map[string]Plan, len(c.PlanList))
	for pi := range c.PlanList {
		p := &c.PlanList[pi]
		if p.ID == "" {
			return fmt.Errorf("plan %d: missing id", pi)
		}
		if _, dup := c.plans[p.ID]; dup {
			return fmt.Errorf("duplicate plan id: %s", p.ID)
		}
		if len(p.Items) == 0 {
			m, ok := c.moves[p.MoveID]
			if !ok {
				return fmt.Errorf("plan %s: %w: %q", p.ID, ErrMoveNotFound, p.MoveID)
			}
			p.Move = m
		}
		for ii := range p.Items {
			m, ok := c.moves[p.Items[ii].MoveID]
			if !ok {
				return fmt.Errorf("plan %s: %w: %q", p.ID, ErrMoveNotFound, p.Items[ii].MoveID)
			}
			p.Items[ii].Move = m
		}
		c.plans[p.ID] = *p
	}
	return nil
}

func (c *Catalog) Move(id string) (Move, error) {
	m, ok := c.moves[id]
	if !ok {
		return Move{}, fmt.Errorf("%w: %s", ErrMoveNotFound, id)
	}
	return m, nil
}

func (c *Catalog) Plan(id string) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return p, nil
}

// Moves returns all moves sorted by id.
func (c *Catalog) Moves() []Move {
	moves := make([]Move, 0, len(c.moves))
	for _, m := range c.moves {
		moves = append(moves, m)
	}
	sort.Slice(moves, func(i, j int) bool {
		return moves[i].ID < moves[j].ID
	})
	return moves
}

// MovesFor returns the moves a user at the given level should be offered.
func (c *Catalog) MovesFor(level Difficulty) []Move {
	var filtered []Move
	for _, m := range c.Moves() {
		if level.Allows(m.Difficulty) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// Plans returns the catalog plans in declaration order.
func (c *Catalog) Plans() []Plan {
	return c.PlanList
}

func (c *Catalog) PlansFor(level Difficulty) []Plan {
	var filtered []Plan
	for _, p := range c.PlanList {
		if level.Allows(p.Difficulty) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// PlanOrMove resolves id as a plan first, then as a single move with
// default targets.
func (c *Catalog) PlanOrMove(id string) (Plan, error) {
	if p, err := c.Plan(id); err == nil {
		return p, nil
	}
	m, err := c.Move(id)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return SingleMovePlan(m, DefaultSets, 0), nil
}
