package machine

import (
	"github.com/mastercactapus/gplot/hw"
	"github.com/mastercactapus/gplot/hw/bridge"
	"github.com/mastercactapus/gplot/hw/sim"
)

// Hardware is the minimal plotter interface: two axes and a pen.
type Hardware struct {
	X, Y hw.Axis
	Pen  hw.Pen
}

// BridgeHardware uses a microcontroller connected over the bridge protocol.
func BridgeHardware(b *bridge.Bridge) Hardware {
	return Hardware{X: b.X, Y: b.Y, Pen: b.Pen}
}

// SimHardware uses a simulated plotter.
func SimHardware(p *sim.Plotter) Hardware {
	return Hardware{X: p.X, Y: p.Y, Pen: p.Pen}
}
