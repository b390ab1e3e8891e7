package contract

import (
	"github.com/pkg/errors"
)

// Cell holds the two interpretations of a value: the consumer side used to
// render stubs and the producer side used to render verification tests.
type Cell struct {
	Consumer Side `json:"consumer"`
	Producer Side `json:"producer"`
}

// NewCell returns a symmetric cell, both sides holding v.
func NewCell(v Side) Cell {
	return Cell{Consumer: v, Producer: v}
}

// Dual returns a cell with distinct consumer and producer sides.
func Dual(consumer, producer Side) Cell {
	return Cell{Consumer: consumer, Producer: producer}
}

// DualOf converts plain Go values, nodes or matchers into a cell.
func DualOf(consumer, producer interface{}) (Cell, error) {
	c, err := toSide(consumer)
	if err != nil {
		return Cell{}, errors.Wrap(err, "consumer side")
	}
	p, err := toSide(producer)
	if err != nil {
		return Cell{}, errors.Wrap(err, "producer side")
	}
	return Dual(c, p), nil
}

func toSide(v interface{}) (Side, error) {
	n, err := Literal(v)
	if err != nil {
		return nil, err
	}
	s, ok := n.(Side)
	if !ok {
		return nil, errors.New("a cell cannot hold another cell directly")
	}
	return s, nil
}

// Side returns the side selected by mode.
func (c Cell) Side(mode Mode) Side {
	if mode == Consumer {
		return c.Consumer
	}
	return c.Producer
}

// Symmetric reports whether both sides hold equal literals.
func (c Cell) Symmetric() bool {
	if _, ok := c.Consumer.(Match); ok {
		return false
	}
	if _, ok := c.Producer.(Match); ok {
		return false
	}
	return Equal(c.Consumer, c.Producer)
}
