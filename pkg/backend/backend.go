// Package backend is the adapter layer of component G (spec §4.G): it
// unifies the kernel/netlink half (pkg/backend/kernel) and the OVSDB
// half (pkg/backend/ovsdb) behind one Backend that the apply pipeline
// drives, and owns the ambient concerns neither half carries alone —
// synthesised OVS ports, orphan collection, dispatch scripts, and
// checkpoint/rollback bookkeeping. Its shape is grounded on the
// teacher's pkg/cni/helper_linux.go (link lifecycle split between a
// kernel half and an OVS half) generalised past a single Pod veth pair,
// and its secret-store side follows pkg/validate.SecretStore.
package backend

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nmstate/nmstate-engine/pkg/backend/kernel"
	ovsdbBackend "github.com/nmstate/nmstate-engine/pkg/backend/ovsdb"
	"github.com/nmstate/nmstate-engine/pkg/config"
	"github.com/nmstate/nmstate-engine/pkg/logging"
	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
)

// Backend drives the kernel and OVSDB adapters as one unit, plus the
// dispatch-script and checkpoint bookkeeping that spans both (spec
// §4.G).
type Backend struct {
	Kernel *kernel.Adapter
	OVSDB  *ovsdbBackend.Client

	cfg *config.Config
	log *logging.Logger

	mu          sync.Mutex
	checkpoints map[string]*Checkpoint
}

// New builds a Backend. ovsdb may be nil when the desired state touches
// no OVS-backed interfaces and the caller chooses not to pay the
// connection cost (spec §5 "OVSDB JSON-RPC socket reads/writes" is a
// suspension point only entered when needed).
func New(cfg *config.Config, ovsdb *ovsdbBackend.Client) *Backend {
	return &Backend{
		Kernel:      kernel.New(),
		OVSDB:       ovsdb,
		cfg:         cfg,
		log:         logging.LoggerForBackend("dispatcher"),
		checkpoints: map[string]*Checkpoint{},
	}
}

// secretFields lists the (variant, field) pairs the apply pipeline
// copies from current state onto a sentinel-bearing desired value
// before the secret reaches a backend write (spec §6, §4.D "secret
// sentinel substitution"). pkg/validate performs the substitution
// itself; this list documents which fields qualify.
var secretFields = []string{
	"ieee8021x.private-key-password",
	"ieee8021x.password",
	"macsec.mka-cak",
	"ipsec.psk",
}

// SecretFields returns the reserved secret field paths (spec §6).
func SecretFields() []string { return append([]string(nil), secretFields...) }

// EnsureOVSDB lazily connects the OVSDB client if the plan touches any
// ovs-bridge/ovs-interface kind and no client is connected yet.
func (b *Backend) EnsureOVSDB(ctx context.Context) (*ovsdbBackend.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.OVSDB != nil {
		return b.OVSDB, nil
	}
	client, err := ovsdbBackend.Connect(ctx, "unix:"+b.cfg.OVSDB.SocketPath, b.cfg.OVSDB.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	b.OVSDB = client
	return client, nil
}

// EnsureOVSPortWrapper synthesises the intermediate `ovs-port-<child>`
// Port/Interface pair for a plain OVS-internal profile attached to a
// bridge, as produced by the merger's auto-inclusion pass (spec
// §4.C.5, §4.G "Synthesised OVS ports").
func (b *Backend) EnsureOVSPortWrapper(ctx context.Context, bridgeName, childName, ifaceType string) error {
	client, err := b.EnsureOVSDB(ctx)
	if err != nil {
		return err
	}
	bridge, err := client.EnsureBridge(ctx, bridgeName)
	if err != nil {
		return err
	}
	return client.EnsurePortWithInterface(ctx, bridge, childName, ifaceType)
}

// CollectOrphans deletes the synthesised OVS-port wrapper (if any) left
// behind by an interface that is now absent (spec §4.G "Orphan
// collection").
func (b *Backend) CollectOrphans(ctx context.Context, deletedChild string) error {
	if b.OVSDB == nil {
		return nil
	}
	return b.OVSDB.DeleteOrphanPorts(ctx, deletedChild)
}

// WriteDispatchScripts renders the up/down scripts for every interface
// carrying a DispatchInstance, using the dispatch-type registry to
// resolve the activation/deactivation templates (spec §3 "Dispatch",
// §4.G "Dispatch script writer").
func (b *Backend) WriteDispatchScripts(ns *state.NetworkState) error {
	registry, _ := ns.Dispatch.Get()
	if registry == nil {
		return nil
	}
	for i := range ns.Interfaces {
		iface := &ns.Interfaces[i]
		inst, ok := iface.Dispatch.Get()
		if !ok || inst == nil {
			continue
		}
		def := registry.Lookup(inst.Kind)
		if def == nil {
			return nmerror.New(nmerror.KindInvalidArgument, "interface %q references unknown dispatch kind %q", iface.Name, inst.Kind)
		}
		if err := b.writeDispatchScript(iface.Name, "up", def.ActivationScript, inst); err != nil {
			return err
		}
		if err := b.writeDispatchScript(iface.Name, "down", def.DeactivationScript, inst); err != nil {
			return err
		}
	}
	return nil
}

const (
	dispatchMarkerStart = "## NMSTATE DISPATCH SCRIPT START"
	dispatchMarkerEnd   = "## NMSTATE DISPATCH SCRIPT END"
)

func (b *Backend) writeDispatchScript(ifaceName, direction, body string, inst *state.DispatchInstance) error {
	dir := b.cfg.Dispatch.Directory
	path := filepath.Join(dir, dispatchScriptName(ifaceName, direction))

	var buf []byte
	buf = append(buf, []byte("#!/bin/sh\n"+dispatchMarkerStart+"\n")...)
	if vars, ok := inst.Variables.Get(); ok {
		for k, v := range vars {
			if v == nil {
				continue
			}
			buf = append(buf, []byte(k+"="+*v+"\n")...)
		}
	}
	buf = append(buf, []byte(body+"\n"+dispatchMarkerEnd+"\n")...)

	if err := os.WriteFile(path, buf, 0744); err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to write dispatch script %q", path)
	}
	return nil
}

// dispatchScriptName returns the `nmstate-<iface>-{up,down}.sh` naming
// convention for a per-interface dispatch script (spec §4.G).
func dispatchScriptName(ifaceName, direction string) string {
	return "nmstate-" + ifaceName + "-" + direction + ".sh"
}

// Checkpoint tracks an in-flight revert snapshot (spec §4.F "create
// checkpoint", "extend checkpoint timeout", "commit or rollback").
// Current is the full pre-apply observed NetworkState: the Revert tree
// only identifies which interfaces changed, rollback replays their
// prior field state from Current through the driver (spec §6
// "Checkpoint semantics" requires restoring all managed device state,
// not just interface presence).
type Checkpoint struct {
	Token    string
	Revert   interface{}
	Current  *state.NetworkState
	Deadline time.Time
}

// CreateCheckpoint stores revert (the output of diffrevert.GenerateRevert)
// and the pre-apply observed state under a fresh token, with an initial
// deadline of the configured rollback timeout.
func (b *Backend) CreateCheckpoint(token string, revert interface{}, current *state.NetworkState) *Checkpoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := &Checkpoint{Token: token, Revert: revert, Current: current, Deadline: time.Now().Add(b.cfg.Checkpoint.RollbackTimeout)}
	b.checkpoints[token] = cp
	return cp
}

// ExtendCheckpoint pushes a checkpoint's deadline out by extra, used
// after the add/change pass to cover the verify loop's own budget
// (verify_interval × verify_retries, spec §4.F step 7).
func (b *Backend) ExtendCheckpoint(token string, extra time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cp, ok := b.checkpoints[token]; ok {
		cp.Deadline = cp.Deadline.Add(extra)
	}
}

// Checkpoint returns the checkpoint for token, or nil.
func (b *Backend) Checkpoint(token string) *Checkpoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checkpoints[token]
}

// DestroyCheckpoint discards a checkpoint after a successful commit.
func (b *Backend) DestroyCheckpoint(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.checkpoints, token)
}
