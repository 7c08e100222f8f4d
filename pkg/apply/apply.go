// Package apply is the apply pipeline, component F (spec §4.F): it
// drives observe → merge → validate → classify → sanitise → checkpoint
// → delete → add/change → verify → commit-or-rollback. The pipeline
// shape — a multi-step reconcile loop recording Prometheus metrics at
// each stage and returning a typed error on failure — is grounded on
// the teacher's subnet controller Reconcile loop (pkg/ovn/subnet_controller.go,
// also the model for pkg/merge's orchestration) generalised from a
// single k8s CRD reconcile to this engine's desired/current state
// reconciliation.
package apply

import (
	"context"
	"time"

	"github.com/nmstate/nmstate-engine/pkg/backend"
	"github.com/nmstate/nmstate-engine/pkg/classify"
	"github.com/nmstate/nmstate-engine/pkg/config"
	"github.com/nmstate/nmstate-engine/pkg/diffrevert"
	"github.com/nmstate/nmstate-engine/pkg/logging"
	"github.com/nmstate/nmstate-engine/pkg/merge"
	"github.com/nmstate/nmstate-engine/pkg/nmerror"
	"github.com/nmstate/nmstate-engine/pkg/state"
	"github.com/nmstate/nmstate-engine/pkg/validate"
)

// Observer reads the host's current network state (spec §4.F step 1
// "observe"). The kernel/OVSDB read side lives behind this interface so
// the pipeline itself stays backend-agnostic and testable with a fake.
type Observer interface {
	Observe(ctx context.Context) (*state.NetworkState, error)
}

// Driver applies a classified plan's per-interface operations to the
// host (spec §4.F steps 5-6 "delete pass", "add/change pass"). The
// default implementation wraps a *backend.Backend; tests supply a fake.
type Driver interface {
	Delete(ctx context.Context, iface *state.Interface) error
	Apply(ctx context.Context, iface *state.Interface) error
}

// Pipeline runs one apply call end to end.
type Pipeline struct {
	cfg      *config.Config
	observer Observer
	driver   Driver
	backend  *backend.Backend
	secrets  validate.SecretStore
	log      *logging.Logger
}

// New builds a Pipeline.
func New(cfg *config.Config, observer Observer, driver Driver, be *backend.Backend, secrets validate.SecretStore) *Pipeline {
	return &Pipeline{cfg: cfg, observer: observer, driver: driver, backend: be, secrets: secrets, log: logging.LoggerForApply("")}
}

// Result is what a successful apply reports. Run returns a nil Result
// with the error when an apply fails (rolled back or not), so RolledBack
// is false on every Result that Run returns.
type Result struct {
	Plan         *classify.Plan
	Committed    bool
	RolledBack   bool
	VerifyRetries int
}

// Run executes one apply of desired against the host's observed
// current state (spec §4.F).
func (p *Pipeline) Run(ctx context.Context, desired *state.NetworkState) (result *Result, err error) {
	start := time.Now()
	token := checkpointToken()
	log := logging.LoggerForApply(token)

	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		ApplyTotal.WithLabelValues(outcome).Inc()
		ApplyDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	current, err := p.observer.Observe(ctx)
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to observe current state")
	}

	merged, err := merge.New().Merge(desired, current)
	if err != nil {
		return nil, err
	}

	if err := validate.Validate(merged, p.secrets); err != nil {
		return nil, err
	}

	plan, err := classify.Classify(merged)
	if err != nil {
		return nil, err
	}
	log.Debug("classified plan", "add", len(plan.Add), "change", len(plan.Change), "delete", len(plan.Delete))

	revert := diffrevert.GenerateRevert(forApplyDocument(merged), observedDocument(current), diffrevert.AbsentState)
	p.backend.CreateCheckpoint(token, revert, current)
	cpStart := time.Now()

	if err := p.runDeletePass(ctx, plan); err != nil {
		p.rollback(ctx, token, err)
		return nil, err
	}
	if err := p.runAddChangePass(ctx, plan); err != nil {
		p.rollback(ctx, token, err)
		return nil, err
	}

	p.backend.ExtendCheckpoint(token, p.cfg.Verify.Interval*time.Duration(p.cfg.Verify.Retries))

	retries, verr := p.verify(ctx, merged)
	VerifyRetries.Observe(float64(retries))
	if verr != nil {
		p.rollback(ctx, token, verr)
		return nil, verr
	}

	p.backend.DestroyCheckpoint(token)
	CheckpointLifetime.Observe(time.Since(cpStart).Seconds())

	return &Result{Plan: plan, Committed: true, VerifyRetries: retries}, nil
}

// runDeletePass removes every interface marked Delete. Orphaned
// synthesised OVS-port wrappers are collected last so a deleted OVS
// child's wrapper port is still resolvable while the child itself is
// being torn down (spec §4.F step 5 "orphan OVS ports last").
func (p *Pipeline) runDeletePass(ctx context.Context, plan *classify.Plan) error {
	for _, entry := range plan.Delete {
		iface := entry.Merged.ForApply
		if iface == nil {
			iface = entry.Merged.Current
		}
		if err := p.driver.Delete(ctx, iface); err != nil {
			return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to delete interface %q", entry.Key.Name)
		}
	}
	for _, entry := range plan.Delete {
		if err := p.backend.CollectOrphans(ctx, entry.Key.Name); err != nil {
			return err
		}
	}
	return nil
}

// runAddChangePass applies every Add/Change entry in up_priority order
// (spec §4.E, §4.F step 6).
func (p *Pipeline) runAddChangePass(ctx context.Context, plan *classify.Plan) error {
	for _, entry := range append(append([]classify.Entry{}, plan.Add...), plan.Change...) {
		if entry.Merged.ForApply == nil {
			continue
		}
		if err := p.driver.Apply(ctx, entry.Merged.ForApply); err != nil {
			return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to apply interface %q", entry.Key.Name)
		}
	}
	return nil
}

// verify re-observes the host and compares it against for_apply,
// retrying up to cfg.Verify.Retries times (spec §4.F step 8). Kernel
// integer fields listed in state.MulticastTimerFields tolerate ±1.
func (p *Pipeline) verify(ctx context.Context, merged *merge.Result) (int, error) {
	if p.cfg.Verify.NoVerify {
		return 0, nil
	}

	var lastErr error
	for attempt := 0; attempt <= p.cfg.Verify.Retries; attempt++ {
		observed, err := p.observer.Observe(ctx)
		if err != nil {
			lastErr = nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to re-observe during verification")
		} else if err := compareForApply(merged, observed); err != nil {
			lastErr = err
		} else {
			return attempt, nil
		}

		if attempt < p.cfg.Verify.Retries {
			select {
			case <-ctx.Done():
				return attempt, ctx.Err()
			case <-time.After(p.cfg.Verify.Interval):
			}
		}
	}
	return p.cfg.Verify.Retries, nmerror.Wrap(nmerror.KindVerificationError, lastErr, "state did not converge after %d retries", p.cfg.Verify.Retries)
}

// compareForApply checks every merged interface's for_apply view
// against the freshly observed state, tolerating extra addresses where
// allow-extra-address permits it and ±1 on multicast timer fields (spec
// §4.A, §4.F step 8, §9 "Kernel integer rounding").
func compareForApply(merged *merge.Result, observed *state.NetworkState) error {
	for key, mi := range merged.Interfaces {
		if mi.ForApply == nil {
			continue
		}
		want := mi.ForApply
		if want.IsAbsent() {
			if got := observed.InterfaceByKey(key); got != nil && !got.IsAbsent() {
				return nmerror.New(nmerror.KindVerificationError, "interface %q still present after delete", key.Name)
			}
			continue
		}
		got := observed.InterfaceByKey(key)
		if got == nil {
			return nmerror.New(nmerror.KindVerificationError, "interface %q missing from observed state", key.Name)
		}
		if mac, ok := want.MACAddress.Get(); ok {
			if gotMac, ok2 := got.MACAddress.Get(); !ok2 || !state.EqualMAC(mac, gotMac) {
				return nmerror.New(nmerror.KindVerificationError, "interface %q mac-address mismatch", key.Name)
			}
		}
		if ipv4, ok := want.IPv4.Get(); ok && ipv4 != nil {
			gotBlock, _ := got.IPv4.Get()
			var gotAddrs []state.Address
			if gotBlock != nil {
				gotAddrs = gotBlock.Address
			}
			if !state.EqualAddressSets(ipv4.Address, gotAddrs, true) && !ipv4.AllowsExtraAddress() {
				return nmerror.New(nmerror.KindVerificationError, "interface %q ipv4 address set mismatch", key.Name)
			}
		}
		if want.LinuxBridge != nil && want.LinuxBridge.Options.Set {
			if got.LinuxBridge == nil {
				return nmerror.New(nmerror.KindVerificationError, "interface %q missing linux-bridge options in observed state", key.Name)
			}
			if err := compareBridgeOptions(key.Name, want.LinuxBridge.Options, got.LinuxBridge.Options); err != nil {
				return err
			}
		}
		if err := compareSRIOVEnumeration(key.Name, want, observed); err != nil {
			return err
		}
	}
	return nil
}

// compareSRIOVEnumeration checks that every synthesised placeholder VF
// of want's SR-IOV sub-record exists by name in observed (spec §4.F
// step 8 "SR-IOV enumeration is considered incomplete until all
// declared VF interface names exist"). VF creation is asynchronous in
// the kernel, so this raises the distinguishable KindSrIovVfNotFound
// rather than a generic KindVerificationError, letting a caller tell
// "still enumerating" apart from a genuine mismatch (spec §9
// "Retry-on-enumeration").
func compareSRIOVEnumeration(pfName string, want *state.Interface, observed *state.NetworkState) error {
	if want.Ethernet == nil {
		return nil
	}
	sriov, ok := want.Ethernet.SRIOV.Get()
	if !ok || sriov == nil {
		return nil
	}
	for _, vf := range sriov.VFs {
		if vf.Name == "" {
			continue
		}
		if observed.InterfaceByName(vf.Name) == nil {
			return nmerror.New(nmerror.KindSrIovVfNotFound, "sr-iov vf %q (id %d) of %q not yet enumerated by the kernel", vf.Name, vf.ID, pfName)
		}
	}
	return nil
}

// compareBridgeOptions checks a linux-bridge's multicast timer options
// against the observed values, tolerating the ±1 kernel-HZ rounding
// spec §9 "Kernel integer rounding" grants the fields listed in
// state.MulticastTimerFields.
func compareBridgeOptions(ifaceName string, want, got state.Opt[*state.LinuxBridgeOptions]) error {
	wantOpts, ok := want.Get()
	if !ok || wantOpts == nil {
		return nil
	}
	gotOpts, ok := got.Get()
	if !ok || gotOpts == nil {
		return nmerror.New(nmerror.KindVerificationError, "interface %q missing linux-bridge options in observed state", ifaceName)
	}

	for _, field := range []struct {
		name      string
		want, got state.Opt[int]
	}{
		{"multicast-last-member-interval", wantOpts.MulticastLastMemberInterval, gotOpts.MulticastLastMemberInterval},
		{"multicast-membership-interval", wantOpts.MulticastMembershipInterval, gotOpts.MulticastMembershipInterval},
		{"multicast-querier-interval", wantOpts.MulticastQuerierInterval, gotOpts.MulticastQuerierInterval},
		{"multicast-query-interval", wantOpts.MulticastQueryInterval, gotOpts.MulticastQueryInterval},
		{"multicast-query-response-interval", wantOpts.MulticastQueryResponseInterval, gotOpts.MulticastQueryResponseInterval},
	} {
		wantVal, ok := field.want.Get()
		if !ok {
			continue
		}
		gotVal, ok := field.got.Get()
		if !ok || !state.EqualWithinTolerance(field.name, wantVal, gotVal, state.IsMulticastTimerField(field.name)) {
			return nmerror.New(nmerror.KindVerificationError, "interface %q linux-bridge option %q mismatch: want %v, got %v", ifaceName, field.name, wantVal, gotVal)
		}
	}
	return nil
}

func (p *Pipeline) rollback(ctx context.Context, token string, cause error) {
	cp := p.backend.Checkpoint(token)
	if cp == nil {
		return
	}
	rollbackCtx, cancel := context.WithTimeout(ctx, p.cfg.Checkpoint.RollbackTimeout)
	defer cancel()

	outcome := "success"
	if err := p.applyRevert(rollbackCtx, cp.Revert, cp.Current); err != nil {
		outcome = "failure"
		logging.LoggerForApply(token).Error(err, "rollback failed after apply error", "cause", cause)
	}
	RollbacksTotal.WithLabelValues(outcome).Inc()
	p.backend.DestroyCheckpoint(token)
}

// applyRevert walks the revert document produced by diffrevert and
// restores each changed interface through the driver (spec §4.F step 9
// "commit or rollback", §6 "Checkpoint semantics": rollback must
// atomically restore all managed device state, not just presence). A
// top-level interface entry that is the bare AbsentState sentinel names
// an interface the failed apply introduced (absent in current before
// this run), so rollback deletes it outright. Any other entry means
// ifaceDoc's richer per-field tree (mac-address/mtu/ip blocks/bond and
// linux-bridge options, ...) produced a real diff against current, so
// the interface existed before and some of its fields were changed —
// rollback replays the pre-apply interface wholesale through
// driver.Apply rather than trying to patch individual fields back in,
// since Apply already ensures every field of the Interface it is given.
func (p *Pipeline) applyRevert(ctx context.Context, revert interface{}, current *state.NetworkState) error {
	doc, ok := revert.(map[string]interface{})
	if !ok {
		return nil
	}
	rawIfaces, ok := doc["interfaces"].(map[string]interface{})
	if !ok {
		return nil
	}
	for name, raw := range rawIfaces {
		if revertState(raw) == diffrevert.AbsentState {
			if err := p.driver.Delete(ctx, &state.Interface{BaseInterface: state.BaseInterface{Name: name, State: state.StateAbsent}}); err != nil {
				return err
			}
			continue
		}
		if current == nil {
			continue
		}
		prior := current.InterfaceByName(name)
		if prior == nil {
			continue
		}
		if err := p.driver.Apply(ctx, prior); err != nil {
			return err
		}
	}
	return nil
}

// revertState reports whether a top-level interface's revert entry is
// the bare AbsentState sentinel (the whole interface must be removed)
// as opposed to a sub-document of changed fields.
func revertState(raw interface{}) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return ""
}

// forApplyDocument and observedDocument produce the generic
// map/slice-shaped trees diffrevert.Diff/GenerateRevert operate over
// (spec §4.H treats the document as an untyped JSON-like tree).
//
// GenerateRevert only recurses through nested map[string]interface{}
// values; a []interface{} value is compared wholesale. Interfaces are
// therefore keyed by name in a nested map rather than held as a list,
// so each interface is diffed and reverted independently instead of
// the whole interface set falling back to an all-or-nothing compare.
// Each interface's own sub-document carries its full managed field set
// (mac-address, mtu, ip blocks, bond/linux-bridge options), not just
// name/state, so a for_apply that only changes (say) MTU on an
// already-up interface still produces a non-nil diff for applyRevert
// to act on.
func forApplyDocument(merged *merge.Result) interface{} {
	ifaces := map[string]interface{}{}
	for _, mi := range merged.Interfaces {
		if mi.ForApply == nil {
			continue
		}
		ifaces[mi.ForApply.Name] = ifaceDoc(mi.ForApply)
	}
	return map[string]interface{}{"interfaces": ifaces}
}

func observedDocument(current *state.NetworkState) interface{} {
	ifaces := map[string]interface{}{}
	for i := range current.Interfaces {
		ifaces[current.Interfaces[i].Name] = ifaceDoc(&current.Interfaces[i])
	}
	return map[string]interface{}{"interfaces": ifaces}
}

// ifaceDoc serialises the subset of an interface's fields the apply
// pipeline manages into the map tree GenerateRevert diffs over. A
// sub-record key (ipv4, bond, bridge, ...) is only present when its
// pointer/Opt is set, so an interface that doesn't touch e.g. bond
// config on either side never produces spurious bond diffs, while one
// that drops a previously-configured sub-record entirely still surfaces
// it (present in current's doc, absent from for_apply's) for
// GenerateRevert's "keys only in current come back verbatim" rule.
func ifaceDoc(iface *state.Interface) map[string]interface{} {
	doc := map[string]interface{}{
		"name":  iface.Name,
		"state": string(iface.State),
	}
	if v, ok := iface.MACAddress.Get(); ok {
		doc["mac-address"] = v
	}
	if v, ok := iface.MTU.Get(); ok {
		doc["mtu"] = v
	}
	if v, ok := iface.ControllerName.Get(); ok {
		doc["controller"] = v
	}
	if d := ipBlockDoc(iface.IPv4); d != nil {
		doc["ipv4"] = d
	}
	if d := ipBlockDoc(iface.IPv6); d != nil {
		doc["ipv6"] = d
	}
	if iface.Bond != nil {
		doc["bond"] = bondDoc(iface.Bond)
	}
	if iface.LinuxBridge != nil && iface.LinuxBridge.Options.Set {
		if opts, ok := iface.LinuxBridge.Options.Get(); ok && opts != nil {
			doc["bridge"] = bridgeOptionsDoc(opts)
		}
	}
	return doc
}

func ipBlockDoc(opt state.Opt[*state.IPBlock]) map[string]interface{} {
	block, ok := opt.Get()
	if !ok || block == nil {
		return nil
	}
	doc := map[string]interface{}{}
	if v, ok := block.Enabled.Get(); ok {
		doc["enabled"] = v
	}
	if v, ok := block.Dhcp.Get(); ok {
		doc["dhcp"] = v
	}
	if v, ok := block.Autoconf.Get(); ok {
		doc["autoconf"] = v
	}
	addrs := make([]interface{}, len(block.Address))
	for i, a := range block.Address {
		addrs[i] = map[string]interface{}{"ip": a.IP, "prefix-length": a.PrefixLength}
	}
	doc["address"] = addrs
	return doc
}

func bondDoc(bond *state.BondConfig) map[string]interface{} {
	doc := map[string]interface{}{}
	if v, ok := bond.Mode.Get(); ok {
		doc["mode"] = string(v)
	}
	ports := make([]interface{}, len(bond.Port))
	for i, p := range bond.Port {
		ports[i] = p
	}
	doc["port"] = ports
	if v, ok := bond.Options.Get(); ok {
		opts := map[string]interface{}{}
		for k, ov := range v {
			opts[k] = ov
		}
		doc["options"] = opts
	}
	return doc
}

func bridgeOptionsDoc(opts *state.LinuxBridgeOptions) map[string]interface{} {
	doc := map[string]interface{}{}
	if v, ok := opts.STP.Get(); ok {
		doc["stp"] = v
	}
	if v, ok := opts.MulticastRouter.Get(); ok {
		doc["multicast-router"] = v
	}
	if v, ok := opts.MulticastSnooping.Get(); ok {
		doc["multicast-snooping"] = v
	}
	for _, field := range []struct {
		name string
		opt  state.Opt[int]
	}{
		{"multicast-last-member-interval", opts.MulticastLastMemberInterval},
		{"multicast-membership-interval", opts.MulticastMembershipInterval},
		{"multicast-querier-interval", opts.MulticastQuerierInterval},
		{"multicast-query-interval", opts.MulticastQueryInterval},
		{"multicast-query-response-interval", opts.MulticastQueryResponseInterval},
	} {
		if v, ok := field.opt.Get(); ok {
			doc[field.name] = v
		}
	}
	return doc
}

// checkpointToken is deliberately not time-based; spec §5 only requires
// tokens to be unique per in-flight apply, and the caller's context
// carries the real request identity when embedded in a larger service.
var tokenCounter uint64

func checkpointToken() string {
	tokenCounter++
	return "ckpt-" + itoa(tokenCounter)
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
