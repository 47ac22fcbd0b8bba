package meshlevel

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/mastercactapus/gplot/coord"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Probe is one measured point of the drawing surface.
type Probe struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`

	// Angle is the pen angle at which the pen touched the surface.
	Angle float64 `yaml:"angle"`
}

// File is the on-disk form of a mesh.
type File struct {
	// Reference is the pen angle that touches a flat surface. Offsets are
	// taken relative to it.
	Reference float64 `yaml:"reference"`
	Probes    []Probe `yaml:"probes"`
}

// OffsetFrom returns a copy of points with z subtracted from every Z.
func OffsetFrom(z float64, points []coord.Point) []coord.Point {
	p := make([]coord.Point, len(points))
	for i, pt := range points {
		pt.Z -= z
		p[i] = pt
	}
	return p
}

// Load reads a YAML mesh file.
func Load(r io.Reader) (*Mesh, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read mesh")
	}
	var f File
	err = yaml.UnmarshalStrict(data, &f)
	if err != nil {
		return nil, errors.Wrap(err, "parse mesh")
	}
	points := make([]coord.Point, len(f.Probes))
	for i, p := range f.Probes {
		points[i] = coord.Point{X: p.X, Y: p.Y, Z: p.Angle}
	}

	return NewMesh(OffsetFrom(f.Reference, points))
}

// LoadFile reads the YAML mesh file at path.
func LoadFile(path string) (*Mesh, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open mesh")
	}
	defer fd.Close()

	return Load(fd)
}
