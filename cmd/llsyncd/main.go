// Command llsyncd runs the periodic advertising synchronization engine
// against an in-memory event scheduler and walks one full sync lifecycle:
// create, establish, supervise, channel map update and terminate.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stenhardvara/zephyr/internal/audit"
	"github.com/stenhardvara/zephyr/internal/ble"
	"github.com/stenhardvara/zephyr/internal/config"
	"github.com/stenhardvara/zephyr/internal/deferred"
	"github.com/stenhardvara/zephyr/internal/llsync"
	"github.com/stenhardvara/zephyr/internal/notify"
	"github.com/stenhardvara/zephyr/internal/ticker/fake"
)

const version = "1.0.0"

func main() {
	root := &cobra.Command{
		Use:     "llsyncd",
		Short:   "periodic advertising synchronization engine",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			return run(verbose)
		},
	}
	root.Flags().BoolP("verbose", "v", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(verbose bool) error {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	log.Info().Str("version", version).Msg("starting llsyncd")

	// Step 1: configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Info().Int("contexts", cfg.Sync.MaxContexts).Msg("configuration loaded")

	// Step 2: audit logger.
	auditLog, err := audit.NewLogger(cfg.Audit)
	if err != nil {
		return fmt.Errorf("failed to initialize audit logger: %w", err)
	}
	defer auditLog.Close()
	log.Info().Str("dir", cfg.Audit.Dir).Msg("audit logger initialized")

	// Step 3: notification resources and delivery queue.
	rx := notify.NewPool(cfg.Sync.RxNodes, cfg.Sync.RxLinks)
	rxQ := notify.NewQueue(nil)

	// Step 4: deferred call dispatcher.
	df := deferred.New(cfg.Deferred.QueueDepth)

	// Step 5: the scheduler. The in-memory fake stands in for a radio
	// timer; the session below fires its expiries by hand.
	sched := fake.New()

	// Step 6: the engine.
	engine := llsync.New(cfg, sched, df, rx, rxQ)
	engine.SetLogger(log)
	engine.SetAudit(auditLog)
	engine.SetPrepareHook(func(p *llsync.PrepareParam) {
		log.Debug().
			Uint16("handle", p.Handle).
			Uint32("ticks", p.TicksAtExpire).
			Uint16("lazy", p.Lazy).
			Msg("radio event prepared")
	})
	log.Info().Msg("engine initialized")

	if err := session(log, engine, sched, df, rx, rxQ); err != nil {
		return err
	}

	log.Info().Msg("llsyncd shutdown complete")
	return nil
}

// session scripts one synchronization lifecycle end to end.
func session(log zerolog.Logger, engine *llsync.Controller, sched *fake.Scheduler,
	df *deferred.Dispatcher, rx *notify.Pool, rxQ *notify.Queue) error {

	// Host requests synchronization to SID 2 of a known advertiser.
	handle, err := engine.Create(llsync.CreateOptions{
		SID:     2,
		AdvAddr: [ble.AddrSize]byte{0xC0, 0x28, 0x6E, 0x14, 0xA2, 0x5B},
		Skip:    2,
		Timeout: 600,
	})
	if err != nil {
		return fmt.Errorf("create failed: %w", err)
	}
	log.Info().Uint16("handle", handle).Msg("sync requested")

	// The scanner reports an extended advertisement carrying sync info.
	engine.Setup(engine.Scan1M(), ble.PHY1M,
		llsync.RxAnchor{TicksAnchor: 10000, RadioEndUs: 50000, PDULen: 30},
		&llsync.SyncInfo{
			Offs:         100,
			Interval:     800, // 1 s
			SCAChm:       [ble.ChannelMapSize]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x5F},
			AA:           [4]byte{0x29, 0x17, 0x66, 0x8A},
			CRCInit:      [3]byte{0x55, 0xAA, 0x11},
			EventCounter: 1000,
		})
	drainNotifications(log, rx, rxQ)

	// A few periodic events: one clean, one missed, one recovering with
	// measured drift.
	id := uint8(0x10 + handle)
	ticks := uint32(11721)
	reports := []llsync.EventDone{
		{Handle: handle, TrxCount: 1, CRCValid: true},
		{Handle: handle},
		{Handle: handle, TrxCount: 1, CRCValid: true, TicksDriftMinus: 3},
	}
	for i := range reports {
		sched.FireExpiry(id, ticks, 0, 0, 0, 0)
		df.Dispatch(deferred.DomainLLL)
		engine.Done(&reports[i])
		ticks += 32749
	}

	// The advertiser shrinks its channel map in band.
	acad := []byte{0x08, 0x28, 0xFF, 0xFF, 0x0F, 0x00, 0x00, 0xF8, 0x03}
	if err := engine.ChannelMapUpdate(handle, acad); err != nil {
		return fmt.Errorf("channel map update failed: %w", err)
	}

	// Host widens the air time reservation, then tears the sync down.
	if err := engine.SlotUpdate(handle, 500, 0); err != nil {
		return fmt.Errorf("slot update failed: %w", err)
	}
	if err := engine.Terminate(handle); err != nil {
		return fmt.Errorf("terminate failed: %w", err)
	}
	df.Dispatch(deferred.DomainULLHigh)
	drainNotifications(log, rx, rxQ)

	log.Info().Msg("session complete")
	return nil
}

func drainNotifications(log zerolog.Logger, rx *notify.Pool, rxQ *notify.Queue) {
	for _, n := range rxQ.Drain() {
		switch n.Kind {
		case notify.KindSync:
			log.Info().
				Uint16("handle", n.Handle).
				Uint8("status", n.Status).
				Uint16("interval", n.Interval).
				Str("phy", n.PHY.String()).
				Msg("sync notification")
		case notify.KindSyncLost:
			log.Warn().Uint16("handle", n.Handle).Msg("sync lost notification")
		}
		if n.Link != nil {
			_ = rx.ReleaseLink(n.Link)
		}
		_ = rx.ReleaseNode(n)
	}
}
