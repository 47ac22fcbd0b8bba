package gcode

import (
	"strconv"
	"strings"
)

// Word is a letter and its numeric argument, e.g. X12.5.
type Word struct {
	W   byte
	Arg float64
}

func (w Word) IsValid() bool { return w.W >= 'A' && w.W <= 'Z' }

// formatFloat formats f with at most prec decimals and no trailing zeros.
func formatFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

func (w Word) String() string { return string(w.W) + formatFloat(w.Arg, 3) }
