package gcode

import (
	"strings"

	"github.com/pkg/errors"
)

// Block is the words of a single line.
type Block []Word

// Arg returns the argument of the first w word in the block.
func (b Block) Arg(w byte) (bool, float64) {
	for _, g := range b {
		if g.W == w {
			return true, g.Arg
		}
	}
	return false, 0
}

func (b Block) String() string {
	var sb strings.Builder
	for _, w := range b {
		sb.WriteString(w.String())
	}
	return sb.String()
}

// Validate rejects blocks that repeat a word (other than G) or hold two
// codes from one modal group.
func (b Block) Validate() error {
	var seenWord [256]bool
	var seenGroup [256]bool

	for _, g := range b {
		if !g.IsValid() {
			return errors.Errorf("invalid word %q in block", g.W)
		}
		if g.W != 'G' && seenWord[g.W] {
			return errors.Errorf("%c word repeated in block", g.W)
		}
		seenWord[g.W] = true

		m := g.ModalGroup()
		if m != ModalGroupNone && seenGroup[m] {
			return errors.Errorf("%s conflicts with another code in the same modal group", g)
		}
		seenGroup[m] = true
	}

	return nil
}
