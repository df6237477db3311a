package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Conn is a connection to the X server scoped to monitor and pointer
// queries. It holds no window resources.
type Conn struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

// Connect opens a connection to the X server and initializes the RandR
// extension used for monitor enumeration.
func Connect() (*Conn, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("failed to initialize randr: %w", err)
	}

	return &Conn{xu: xu, root: xu.RootWin()}, nil
}

// Close disconnects from the X server.
func (c *Conn) Close() {
	c.xu.Conn().Close()
}

// CursorPosition returns the pointer position in root coordinates.
func (c *Conn) CursorPosition() (int, int, error) {
	pointer, err := xproto.QueryPointer(c.xu.Conn(), c.root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query pointer: %w", err)
	}
	return int(pointer.RootX), int(pointer.RootY), nil
}
