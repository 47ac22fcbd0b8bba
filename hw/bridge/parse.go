package bridge

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Status is a position report from the microcontroller.
type Status struct {
	X, Y int
}

func parseStatus(stat Status, data string) (*Status, error) {
	data = strings.TrimSpace(data)
	if !strings.HasPrefix(data, "<") || !strings.HasSuffix(data, ">") {
		return nil, errors.Errorf("malformed status: %q", data)
	}
	data = strings.TrimPrefix(data, "<")
	data = strings.TrimSuffix(data, ">")
	var err error
	for _, s := range strings.Split(data, "|") {
		parts := strings.SplitN(s, ":", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("malformed field: %q", s)
		}
		switch parts[0] {
		case "X":
			stat.X, err = strconv.Atoi(parts[1])
		case "Y":
			stat.Y, err = strconv.Atoi(parts[1])
		}
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", parts[0])
		}
	}
	return &stat, nil
}

// driveLine formats the command for one axis, e.g. "X+36" or "YS".
func driveLine(axis byte, sign int8, duty float64) string {
	switch {
	case sign > 0:
		return string(axis) + "+" + strconv.FormatFloat(duty, 'f', -1, 64)
	case sign < 0:
		return string(axis) + "-" + strconv.FormatFloat(duty, 'f', -1, 64)
	}
	return string(axis) + "S"
}
