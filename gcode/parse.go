package gcode

import (
	"io"
	"strings"
)

// Parse reads every block of a program held in memory.
func Parse(data string) ([]Block, error) {
	p := NewParser(strings.NewReader(data))
	var blocks []Block
	for {
		b, err := p.Read()
		if err == io.EOF {
			return blocks, nil
		}
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
}

// MustParse is like Parse but panics on error. It is meant for fixed
// programs such as tests.
func MustParse(data string) []Block {
	b, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return b
}
