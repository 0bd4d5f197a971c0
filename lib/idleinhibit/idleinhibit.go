package idleinhibit

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/onkernel/screencap/lib/logger"
)

// Controller turns the display's idle handling (screen saver, DPMS blanking)
// off while something is being captured and back on afterwards.
type Controller interface {
	// Disable turns idle blanking off.
	Disable(ctx context.Context) error
	// Enable restores idle blanking after it has previously been disabled.
	Enable(ctx context.Context) error
}

// xsetController drives the X server's screen saver and DPMS through xset.
type xsetController struct {
	binaryPath string
	display    string
}

// NewXsetController returns a controller for the given X display, e.g. ":1".
func NewXsetController(display string) Controller {
	return &xsetController{binaryPath: "xset", display: display}
}

func (c *xsetController) Disable(ctx context.Context) error {
	return c.run(ctx, "s", "off", "-dpms")
}

func (c *xsetController) Enable(ctx context.Context) error {
	return c.run(ctx, "s", "on", "+dpms")
}

func (c *xsetController) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, c.binaryPath, args...)
	cmd.Env = append(os.Environ(), "DISPLAY="+c.display)
	if out, err := cmd.CombinedOutput(); err != nil {
		logger.FromContext(ctx).Error("xset failed", "args", args, "display", c.display, "err", err, "output", string(out))
		return fmt.Errorf("xset %v: %w", args, err)
	}
	return nil
}

type NoopController struct{}

func NewNoopController() *NoopController { return &NoopController{} }

func (NoopController) Disable(context.Context) error { return nil }
func (NoopController) Enable(context.Context) error  { return nil }

// DebouncedController reference-counts holders so that the wrapped controller
// is disabled on the first Disable and enabled only when the last holder
// calls Enable.
type DebouncedController struct {
	mu      sync.Mutex
	ctrl    Controller
	holders int
}

func NewDebouncedController(c Controller) *DebouncedController {
	return &DebouncedController{ctrl: c}
}

func (d *DebouncedController) Disable(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.holders == 0 {
		if err := d.ctrl.Disable(ctx); err != nil {
			return err
		}
	}
	d.holders++
	return nil
}

func (d *DebouncedController) Enable(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.holders == 0 {
		return nil
	}
	if d.holders == 1 {
		if err := d.ctrl.Enable(ctx); err != nil {
			return err
		}
	}
	d.holders--
	return nil
}

// Oncer wraps a Controller and ensures that Disable and Enable are called at most once.
type Oncer struct {
	ctrl        Controller
	disableOnce sync.Once
	enableOnce  sync.Once
	disableErr  error
	enableErr   error
}

func NewOncer(c Controller) *Oncer { return &Oncer{ctrl: c} }

func (o *Oncer) Disable(ctx context.Context) error {
	o.disableOnce.Do(func() { o.disableErr = o.ctrl.Disable(ctx) })
	return o.disableErr
}

func (o *Oncer) Enable(ctx context.Context) error {
	o.enableOnce.Do(func() { o.enableErr = o.ctrl.Enable(ctx) })
	return o.enableErr
}
