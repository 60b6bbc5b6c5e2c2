package session

import (
	"context"
	"time"
)

// runMonitor watches for dungeon runs that stopped producing log
// activity. Crashed or abandoned runs never emit an end marker, so the
// monitor synthesizes one through the normal transition path.
func (t *Tracker) runMonitor(ctx context.Context) {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.cfg.MythicPlus.CheckInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.safeIdleCheck()
		}
	}
}

// safeIdleCheck keeps a panicking check from killing the monitor loop.
func (t *Tracker) safeIdleCheck() {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("idle check panicked", "panic", r)
		}
	}()
	t.idleCheck()
}

func (t *Tracker) idleCheck() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode != Dungeon {
		return
	}
	idle := t.now().Sub(t.lastActivityAt)
	if idle <= t.cfg.MythicPlus.IdleTimeout.Std() {
		return
	}
	t.log.Warn("dungeon run timed out",
		"dungeon", t.dungeon.Name, "idle", idle)
	t.endDungeon(ReasonTimeout, false, "")
}
