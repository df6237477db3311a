package versoruntime

import "github.com/agiangrant/versoruntime/internal/x11"

// Monitor describes a connected display.
type Monitor struct {
	// Name is the platform's identifier for the output.
	Name string
	// Position of the top-left corner in physical pixels, in the global
	// coordinate space.
	Position PhysicalPosition
	// Size in physical pixels.
	Size PhysicalSize
	// WorkArea is the monitor area left after panels and docks. It equals
	// the full monitor on platforms that do not report one.
	WorkArea Rect
	// ScaleFactor maps physical pixels to logical points.
	ScaleFactor float64
	// Primary marks the platform's primary monitor.
	Primary bool
}

// Rect pairs a position with a size.
type Rect struct {
	Position PhysicalPosition
	Size     PhysicalSize
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(x, y int32) bool {
	return x >= r.Position.X && x < r.Position.X+int32(r.Size.Width) &&
		y >= r.Position.Y && y < r.Position.Y+int32(r.Size.Height)
}

func monitorFromX11(m x11.Monitor) Monitor {
	return Monitor{
		Name:     m.Name,
		Position: PhysicalPosition{X: int32(m.X), Y: int32(m.Y)},
		Size:     PhysicalSize{Width: uint32(m.Width), Height: uint32(m.Height)},
		WorkArea: Rect{
			Position: PhysicalPosition{X: int32(m.WorkX), Y: int32(m.WorkY)},
			Size:     PhysicalSize{Width: uint32(m.WorkWidth), Height: uint32(m.WorkHeight)},
		},
		ScaleFactor: 1.0,
		Primary:     m.Primary,
	}
}

// AvailableMonitors lists connected monitors. On platforms without monitor
// query support the list is empty.
func (c *EventLoopContext) AvailableMonitors() []Monitor {
	conn := c.ctx.monitorConn()
	if conn == nil {
		return nil
	}

	raw, err := conn.Monitors()
	if err != nil {
		c.ctx.logger.Error().Err(err).Msg("failed to enumerate monitors")
		return nil
	}

	monitors := make([]Monitor, 0, len(raw))
	for _, m := range raw {
		monitors = append(monitors, monitorFromX11(m))
	}
	return monitors
}

// PrimaryMonitor returns the primary monitor, if the platform reports one.
func (c *EventLoopContext) PrimaryMonitor() (Monitor, bool) {
	monitors := c.AvailableMonitors()
	for _, m := range monitors {
		if m.Primary {
			return m, true
		}
	}
	if len(monitors) > 0 {
		return monitors[0], true
	}
	return Monitor{}, false
}

// MonitorFromPoint returns the monitor containing the point.
func (c *EventLoopContext) MonitorFromPoint(x, y int32) (Monitor, bool) {
	for _, m := range c.AvailableMonitors() {
		full := Rect{Position: m.Position, Size: m.Size}
		if full.Contains(x, y) {
			return m, true
		}
	}
	return Monitor{}, false
}

// CursorPosition returns the global cursor position in physical pixels.
func (c *EventLoopContext) CursorPosition() (PhysicalPosition, error) {
	conn := c.ctx.monitorConn()
	if conn == nil {
		return PhysicalPosition{}, ErrFailedToGetCursorPosition
	}

	x, y, err := conn.CursorPosition()
	if err != nil {
		c.ctx.logger.Error().Err(err).Msg("failed to query cursor position")
		return PhysicalPosition{}, ErrFailedToGetCursorPosition
	}
	return PhysicalPosition{X: int32(x), Y: int32(y)}, nil
}
