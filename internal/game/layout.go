package game

import (
	"sort"

	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
)

// GridColumns is the width of every (section, polarity) block in the tracker.
const GridColumns = 3

// Block is one button area of the tracker: offensive or defensive, positive or negative.
type Block struct {
	Section  string
	Positive bool
}

// Cell is a position inside a block.
type Cell struct {
	Section  string `json:"section"`
	Positive bool   `json:"is_positive"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
}

func (c Cell) Block() Block {
	return Block{Section: c.Section, Positive: c.Positive}
}

func (c Cell) valid() bool {
	return (c.Section == scoring.SectionOffense || c.Section == scoring.SectionDefense) &&
		c.Row >= 0 && c.Col >= 0 && c.Col < GridColumns
}

// Placement is an action id resolved to a cell.
type Placement struct {
	ActionID int64
	Cell     Cell
}

// Layout is the placement map of a coach's actions. Each cell holds at most one action.
//
// Actions are placed in ascending id order, so the oldest action keeps a contested cell and
// later ones move to the first free cell of their block. Moves into an occupied cell fail
// unless a swap is requested.
type Layout struct {
	cells  map[Cell]int64
	placed map[int64]Cell
	stored map[int64]Cell
}

// NewLayout resolves the stored positions of actions into a collision-free map.
func NewLayout(actions []Action) *Layout {
	l := &Layout{
		cells:  make(map[Cell]int64, len(actions)),
		placed: make(map[int64]Cell, len(actions)),
		stored: make(map[int64]Cell, len(actions)),
	}

	ordered := make([]Action, len(actions))
	copy(ordered, actions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for _, a := range ordered {
		c := a.Cell()
		l.stored[a.ID] = c
		if c.Section != scoring.SectionDefense {
			c.Section = scoring.SectionOffense
		}
		if _, taken := l.cells[c]; taken || !c.valid() {
			c = l.FirstFree(c.Block())
		}
		l.set(a.ID, c)
	}
	return l
}

func (l *Layout) set(id int64, c Cell) {
	l.cells[c] = id
	l.placed[id] = c
}

// FirstFree scans a block row by row and returns the first empty cell.
func (l *Layout) FirstFree(b Block) Cell {
	for row := 0; ; row++ {
		for col := 0; col < GridColumns; col++ {
			c := Cell{Section: b.Section, Positive: b.Positive, Row: row, Col: col}
			if _, taken := l.cells[c]; !taken {
				return c
			}
		}
	}
}

// At returns the action in a cell.
func (l *Layout) At(c Cell) (int64, bool) {
	id, ok := l.cells[c]
	return id, ok
}

// CellOf returns where an action is placed.
func (l *Layout) CellOf(id int64) (Cell, bool) {
	c, ok := l.placed[id]
	return c, ok
}

// Place puts a new action in a free cell.
func (l *Layout) Place(id int64, c Cell) error {
	if !c.valid() {
		return ErrInvalidCell
	}
	if _, taken := l.cells[c]; taken {
		return ErrCellOccupied
	}
	l.set(id, c)
	return nil
}

// Remove frees the action's cell.
func (l *Layout) Remove(id int64) {
	if c, ok := l.placed[id]; ok {
		delete(l.cells, c)
		delete(l.placed, id)
	}
}

// Move relocates an action inside its own block. Moving onto another action fails with
// ErrCellOccupied unless swap is set, in which case the two actions trade cells.
// It returns the placements that changed.
func (l *Layout) Move(id int64, target Cell, swap bool) ([]Placement, error) {
	from, ok := l.placed[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !target.valid() || target.Block() != from.Block() {
		return nil, ErrInvalidCell
	}
	if target == from {
		return nil, nil
	}

	other, taken := l.cells[target]
	if !taken {
		delete(l.cells, from)
		l.set(id, target)
		return []Placement{{ActionID: id, Cell: target}}, nil
	}
	if !swap {
		return nil, ErrCellOccupied
	}
	l.set(id, target)
	l.set(other, from)
	return []Placement{{ActionID: id, Cell: target}, {ActionID: other, Cell: from}}, nil
}

// Changes lists the actions whose resolved cell differs from their stored one, by id.
func (l *Layout) Changes() []Placement {
	var out []Placement
	for id, c := range l.placed {
		if stored, ok := l.stored[id]; !ok || stored != c {
			out = append(out, Placement{ActionID: id, Cell: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActionID < out[j].ActionID })
	return out
}
