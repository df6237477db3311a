package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor describes one active RandR output. Geometry is in physical
// pixels, root coordinates. The work area excludes panels and docks when
// the window manager publishes one; otherwise it equals the full geometry.
type Monitor struct {
	Name    string
	X, Y    int
	Width   int
	Height  int
	Primary bool

	WorkX, WorkY          int
	WorkWidth, WorkHeight int
}

// Monitors enumerates active monitors. Disabled CRTCs are skipped.
func (c *Conn) Monitors() ([]Monitor, error) {
	resources, err := randr.GetScreenResources(c.xu.Conn(), c.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.xu.Conn(), c.root).Reply(); err == nil {
		primary = reply.Output
	}

	workX, workY, workW, workH, hasWorkArea := c.desktopWorkArea()

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.xu.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if output, err := randr.GetOutputInfo(c.xu.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(output.Name)
		}

		mon := Monitor{
			Name:       name,
			X:          int(info.X),
			Y:          int(info.Y),
			Width:      int(info.Width),
			Height:     int(info.Height),
			WorkX:      int(info.X),
			WorkY:      int(info.Y),
			WorkWidth:  int(info.Width),
			WorkHeight: int(info.Height),
		}
		for _, out := range info.Outputs {
			if out == primary {
				mon.Primary = true
				break
			}
		}

		// Clip the published desktop work area to this monitor.
		if hasWorkArea {
			x1 := max(mon.X, workX)
			y1 := max(mon.Y, workY)
			x2 := min(mon.X+mon.Width, workX+workW)
			y2 := min(mon.Y+mon.Height, workY+workH)
			if x2 > x1 && y2 > y1 {
				mon.WorkX = x1
				mon.WorkY = y1
				mon.WorkWidth = x2 - x1
				mon.WorkHeight = y2 - y1
			}
		}

		monitors = append(monitors, mon)
	}

	return monitors, nil
}

// desktopWorkArea reads the window manager's _NET_WORKAREA for the current
// desktop. Not every window manager publishes it.
func (c *Conn) desktopWorkArea() (x, y, w, h int, ok bool) {
	workAreas, err := ewmh.WorkareaGet(c.xu)
	if err != nil || len(workAreas) == 0 {
		return 0, 0, 0, 0, false
	}

	index := 0
	if desktop, err := ewmh.CurrentDesktopGet(c.xu); err == nil && int(desktop) < len(workAreas) {
		index = int(desktop)
	}

	area := workAreas[index]
	return int(area.X), int(area.Y), int(area.Width), int(area.Height), true
}
