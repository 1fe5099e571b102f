package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/getmockd/httptape/pkg/mockpath"
	"github.com/getmockd/httptape/pkg/recording"
	"github.com/getmockd/httptape/pkg/tape"
)

// A vignette is a recorded walk through several server states. Its fixtures
// live in integer-named layers under one root: root/0 for the initial state,
// root/1 after the first ChangeState, and so on.
type vignette struct {
	root     string
	settings Settings
}

// RegisterPreSessionHook adds a hook run by StartVignette before the session
// starts. Hooks may change settings for the vignette; EndVignette restores
// them.
func (c *Controller) RegisterPreSessionHook(h Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preHooks = append(c.preHooks, h)
}

// RegisterPostSessionHook adds a hook run by EndVignette after the session
// stops.
func (c *Controller) RegisterPostSessionHook(h Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postHooks = append(c.postHooks, h)
}

// StartVignette starts a session on the vignette at root. If root already
// holds any file the vignette replays; otherwise it captures into root/0.
func (c *Controller) StartVignette(ctx context.Context, root string) error {
	c.mu.Lock()
	if c.state != Off || c.vignette != nil {
		c.mu.Unlock()
		return tape.ErrSessionActive
	}
	v := &vignette{root: root, settings: c.settings}
	c.vignette = v
	pre := append([]Hook(nil), c.preHooks...)
	c.mu.Unlock()

	abort := func(err error) error {
		c.mu.Lock()
		c.vignette = nil
		c.settings = v.settings
		c.mu.Unlock()
		return err
	}

	for _, h := range pre {
		if err := h(ctx, c); err != nil {
			return abort(fmt.Errorf("pre-session hook: %w", err))
		}
	}

	first := mockpath.VignetteRoot(root)
	var err error
	if recording.HasFiles(root) {
		err = c.StartMocking(MockOptions{Path: first})
	} else {
		err = c.StartCapturing(CaptureOptions{Path: first})
	}
	if err != nil {
		return abort(err)
	}
	return nil
}

// ChangeState moves the vignette to its next layer. It returns an
// *tape.InvalidLayerError when the top of the stack is not an integer
// layer.
func (c *Controller) ChangeState() error {
	next, err := c.stack.LayerNext()
	if err != nil {
		return err
	}
	c.mu.RLock()
	log := c.log
	c.mu.RUnlock()
	log.Info("changed state", "layer", next)
	return nil
}

// EndVignette stops the vignette's session, runs post-session hooks and
// restores the settings saved by StartVignette.
func (c *Controller) EndVignette(ctx context.Context) error {
	c.mu.RLock()
	v := c.vignette
	post := append([]Hook(nil), c.postHooks...)
	c.mu.RUnlock()

	if v == nil {
		return tape.ErrNoActiveSession
	}

	var errs []error
	if err := c.Stop(); err != nil && !errors.Is(err, tape.ErrNoActiveSession) {
		errs = append(errs, err)
	}
	for _, h := range post {
		if err := h(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("post-session hook: %w", err))
		}
	}

	c.mu.Lock()
	c.settings = v.settings
	c.vignette = nil
	c.mu.Unlock()

	return errors.Join(errs...)
}
