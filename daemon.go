// Package kurupira is the daemon's top-level wiring: it builds an LP
// module and an NP module and cross-wires them exactly as spec §2's
// data-flow summary and §9's lifecycle describe — LP's data-plane engine
// becomes NP's view of the mesh (application.LPTransport), and LP's
// upward queue feeds NP's receive loop. Everything below this point
// (resolving config file paths, handling process signals, an operator
// console transport) belongs to the host daemon process and is out of
// scope (spec §1); this file is the one in-scope binding point between
// the two protocol layers.
package kurupira

import (
	"context"

	"golang.org/x/sync/errgroup"

	"kurupira/infrastructure/config"
	"kurupira/infrastructure/logging"
	"kurupira/infrastructure/lp"
	"kurupira/infrastructure/np"
	"kurupira/presentation/console"
)

// Daemon holds both protocol layers once cross-wired.
type Daemon struct {
	lp *lp.Module
	np *np.Module
}

// Initialize builds and cross-wires the LP and NP modules from their
// configurations (spec §9 "initialize(config)").
func Initialize(lpCfg config.LP, npCfg config.NP, log logging.Logger) (*Daemon, error) {
	lpModule, err := lp.Initialize(lpCfg, log)
	if err != nil {
		return nil, err
	}

	npModule, err := np.Initialize(npCfg, lpModule.Data(), log)
	if err != nil {
		return nil, err
	}

	return &Daemon{lp: lpModule, np: npModule}, nil
}

// LP returns the Link Protocol module, for a console transport's LP
// command table.
func (d *Daemon) LP() *lp.Module { return d.lp }

// NP returns the Network Protocol module, for a console transport's NP
// command table.
func (d *Daemon) NP() *np.Module { return d.np }

// Console returns the LP and NP console command registries (SPEC_FULL §4
// "SUPPLEMENTED FEATURES"), for a daemon-owned console transport to
// enumerate and dispatch into.
func (d *Daemon) Console() (lpCommands, npCommands console.Registry) {
	return console.LPCommands(d.lp.Scheduler()), console.NPCommands(d.np.Table(), d.np.Handshake())
}

// Run drives both modules until ctx is cancelled: LP's listen/tick loop
// and NP's upward-queue drain loop run concurrently, and the first to
// fail cancels the other (spec §9 "listen/tick").
func (d *Daemon) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.lp.Run(ctx) })
	g.Go(func() error { return d.np.Run(ctx, d.lp.Upward()) })
	return g.Wait()
}

// Finalize tears down both modules in reverse dependency order: NP first
// (it depends on LP's transport), then LP, which flushes its node cache
// to disk (spec §9 "finalize", spec §6 "Persisted state"). Call only
// after Run has returned.
func (d *Daemon) Finalize() error {
	npErr := d.np.Finalize()
	lpErr := d.lp.Finalize()
	if npErr != nil {
		return npErr
	}
	return lpErr
}
