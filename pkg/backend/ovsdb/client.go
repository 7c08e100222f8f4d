package ovsdb

import (
	"context"
	"fmt"
	"time"

	"github.com/ovn-org/libovsdb/client"
	"github.com/ovn-org/libovsdb/model"
	"github.com/ovn-org/libovsdb/ovsdb"

	"github.com/nmstate/nmstate-engine/pkg/logging"
	"github.com/nmstate/nmstate-engine/pkg/nmerror"
)

// Client wraps a libovsdb client.Client bound to the Open_vSwitch
// schema (spec §6 "OVSDB global config path").
type Client struct {
	ovs client.Client
	log *logging.Logger
}

// Connect dials the Open_vSwitch JSON-RPC socket at endpoint (a
// `unix:` URL wrapping the default `/run/openvswitch/db.sock`) and
// monitors every table this engine touches.
func Connect(ctx context.Context, endpoint string, connectTimeout time.Duration) (*Client, error) {
	dbModel, err := DBModel()
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindBug, err, "failed to build ovsdb client model")
	}

	ovsClient, err := client.NewOVSDBClient(dbModel, client.WithEndpoint(endpoint))
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to construct ovsdb client")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := ovsClient.Connect(connectCtx); err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to connect to ovsdb at %s", endpoint)
	}

	if _, err := ovsClient.MonitorAll(ctx); err != nil {
		ovsClient.Close()
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to monitor ovsdb tables")
	}

	return &Client{ovs: ovsClient, log: logging.LoggerForBackend("ovsdb")}, nil
}

// Close disconnects the client.
func (c *Client) Close() { c.ovs.Close() }

// GlobalRow returns the single Open_vSwitch table row.
func (c *Client) GlobalRow() (*OpenVSwitch, error) {
	var rows []OpenVSwitch
	if err := c.ovs.List(context.Background(), &rows); err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to list Open_vSwitch row")
	}
	if len(rows) != 1 {
		return nil, nmerror.New(nmerror.KindBug, "expected exactly one Open_vSwitch row, found %d", len(rows))
	}
	return &rows[0], nil
}

// SetGlobalConfig writes the merged external_ids/other_config maps to
// the database-wide row (spec §3 "OVSDB global", §4.C.3 three-valued
// map merge).
func (c *Client) SetGlobalConfig(ctx context.Context, externalIDs, otherConfig map[string]string) error {
	row, err := c.GlobalRow()
	if err != nil {
		return err
	}
	row.ExternalIDs = externalIDs
	row.OtherConfig = otherConfig

	ops, err := c.ovs.Where(row).Update(row)
	if err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to build global config update")
	}
	_, err = TransactAndCheck(ctx, c.ovs, ops, 5*time.Second)
	return err
}

// EnsureBridge creates bridge name if it does not already exist, linking
// it into the Open_vSwitch table's bridges set in the same transaction,
// and returns its row (spec §4.G "Profile identity").
func (c *Client) EnsureBridge(ctx context.Context, name string) (*Bridge, error) {
	var existing []Bridge
	if err := c.ovs.WhereCache(func(b *Bridge) bool { return b.Name == name }).List(ctx, &existing); err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to look up bridge %q", name)
	}
	if len(existing) == 1 {
		return &existing[0], nil
	}

	bridge := &Bridge{UUID: BuildNamedUUID(name), Name: name}
	ops, err := c.ovs.Create(bridge)
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to build create-bridge op for %q", name)
	}
	row, err := c.GlobalRow()
	if err != nil {
		return nil, err
	}
	linkOps, err := c.ovs.Where(row).Mutate(row, model.Mutation{
		Field:   &row.Bridges,
		Mutator: ovsdb.MutateOperationInsert,
		Value:   []string{bridge.UUID},
	})
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to build bridge-link op for %q", name)
	}
	results, err := TransactAndCheck(ctx, c.ovs, append(ops, linkOps...), 5*time.Second)
	if err != nil {
		return nil, err
	}
	bridge.UUID = GetUUIDFromResult(results[0])
	return bridge, nil
}

// EnsurePortWithInterface creates the intermediate `ovs-port-<child>`
// Port row plus its Interface row, wiring the bridge's port list and
// the port's interface list (spec §4.G "Synthesised OVS ports": "the
// adapter creates an intermediate OVS-port profile ... Its controller
// reference uses the bridge UUID; the child's controller uses the
// port's UUID").
func (c *Client) EnsurePortWithInterface(ctx context.Context, bridge *Bridge, childName, ifaceType string) error {
	portName := SynthesisedPortName(childName)

	iface := &Interface{UUID: BuildNamedUUID(childName), Name: childName, Type: ifaceType}
	port := &Port{UUID: BuildNamedUUID(portName), Name: portName, Interfaces: []string{iface.UUID}}

	ifaceOps, err := c.ovs.Create(iface)
	if err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to build create-interface op for %q", childName)
	}
	portOps, err := c.ovs.Create(port)
	if err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to build create-port op for %q", portName)
	}

	mutateOps, err := c.ovs.Where(bridge).Mutate(bridge, model.Mutation{
		Field:   &bridge.Ports,
		Mutator: ovsdb.MutateOperationInsert,
		Value:   []string{port.UUID},
	})
	if err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to build bridge-port attach op for %q", portName)
	}

	ops := append(append(ifaceOps, portOps...), mutateOps...)
	_, err = TransactAndCheck(ctx, c.ovs, ops, 5*time.Second)
	return err
}

// SynthesisedPortName returns the `ovs-port-<child>` naming convention
// used for the wrapper Port between a bridge and an OVS-internal
// profile (spec §4.G).
func SynthesisedPortName(childName string) string {
	return fmt.Sprintf("ovs-port-%s", childName)
}

// DeleteBridge removes bridge name's row and unlinks it from the
// Open_vSwitch table's bridges list (spec §4.F step 5 "delete pass",
// §4.E "ovs-bridge kind").
func (c *Client) DeleteBridge(ctx context.Context, name string) error {
	var bridges []Bridge
	if err := c.ovs.WhereCache(func(b *Bridge) bool { return b.Name == name }).List(ctx, &bridges); err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to look up bridge %q", name)
	}
	if len(bridges) == 0 {
		return nil
	}
	bridge := &bridges[0]

	row, err := c.GlobalRow()
	if err != nil {
		return err
	}
	detachOps, err := c.ovs.Where(row).Mutate(row, model.Mutation{
		Field:   &row.Bridges,
		Mutator: ovsdb.MutateOperationDelete,
		Value:   []string{bridge.UUID},
	})
	if err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to build bridge-detach op for %q", name)
	}
	deleteOps, err := c.ovs.Where(bridge).Delete()
	if err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to build delete op for bridge %q", name)
	}

	_, err = TransactAndCheck(ctx, c.ovs, append(detachOps, deleteOps...), 5*time.Second)
	return err
}

// DeleteOrphanPorts deletes the synthesised `ovs-port-<childName>` Port
// row, if one exists (spec §4.G "Orphan collection"). Ports under any
// other name are not looked at.
func (c *Client) DeleteOrphanPorts(ctx context.Context, childName string) error {
	portName := SynthesisedPortName(childName)
	var ports []Port
	if err := c.ovs.WhereCache(func(p *Port) bool { return p.Name == portName }).List(ctx, &ports); err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to look up orphan port %q", portName)
	}
	if len(ports) == 0 {
		return nil
	}
	ops, err := c.ovs.Where(&ports[0]).Delete()
	if err != nil {
		return nmerror.Wrap(nmerror.KindPluginFailure, err, "failed to build delete op for orphan port %q", portName)
	}
	_, err = TransactAndCheck(ctx, c.ovs, ops, 5*time.Second)
	return err
}
