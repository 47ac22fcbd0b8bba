package machine

import (
	"github.com/mastercactapus/gplot/meshlevel"
)

// SetMesh enables pen compensation, or disables it for a nil mesh.
// Straight moves of following programs are split every granularity mm so
// the offset follows the surface.
func (m *Machine) SetMesh(mesh *meshlevel.Mesh, granularity float64) {
	m.decMx.Lock()
	defer m.decMx.Unlock()

	m.mx.Lock()
	if mesh == nil {
		m.splitter = nil
		m.t.Translator().SetPenOffsetter(nil)
	} else {
		m.splitter = meshlevel.NewSplitter(granularity)
		m.t.Translator().SetPenOffsetter(mesh)
	}
	m.mx.Unlock()

	m.syncProgram()
}
