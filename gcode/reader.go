package gcode

import "io"

// Reader yields blocks until io.EOF.
type Reader interface {
	Read() (Block, error)
}

// BlocksReader reads from blocks already in memory.
type BlocksReader struct {
	Blocks []Block
	pos    int
}

func (r *BlocksReader) Read() (Block, error) {
	if r.pos >= len(r.Blocks) {
		return nil, io.EOF
	}
	b := r.Blocks[r.pos]
	r.pos++
	return b, nil
}
