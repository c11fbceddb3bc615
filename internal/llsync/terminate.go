package llsync

import "time"

// Terminate tears down an established sync: the periodic instance is
// stopped, the unused terminal notification resources are returned and
// the context is released. Blocks until the stop resolves; issued from
// the command domain, one at a time.
//
// A termination crossing a supervision timeout is benign: whichever side
// stops the instance owns the teardown, and the loser backs off.
func (c *Controller) Terminate(handle uint16) error {
	start := time.Now()
	err := c.terminate(handle)
	c.auditLog("SYNC_TERMINATE", handle, err, start)
	return err
}

func (c *Controller) terminate(handle uint16) error {
	sync := c.enabledGet(handle)
	if sync == nil {
		return ErrNotFound
	}

	// Mark the instance as being disabled so in-flight scheduler
	// completions against it tolerate the disappearance.
	c.disableMark.Store(uint32(handle))
	defer c.disableMark.Store(noMark)

	// Unpublish before stopping; event done processing arriving from
	// here on no longer sees an established context.
	sync.timeoutReload.Store(0)

	if !c.stopSync(handle) {
		// The supervision timeout stopped the instance first and its
		// loss path completes the teardown.
		return nil
	}

	_ = c.rx.ReleaseNode(sync.nodeLost)
	_ = c.rx.ReleaseLink(sync.linkLost)
	_ = c.pool.Release(handle)

	c.log.Info().Uint16("handle", handle).Msg("sync terminated")

	return nil
}
