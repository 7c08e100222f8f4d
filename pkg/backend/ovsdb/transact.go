// Transaction helpers for the Open_vSwitch JSON-RPC client, adapted
// from the teacher's pkg/ovndb/transact.go. The Kubernetes
// wait.PollUntilContextCancel retry loop is replaced with a plain
// ticker-based retry since this engine carries no Kubernetes API
// surface; klog is replaced by the engine's own structured logger.
package ovsdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovn-org/libovsdb/client"
	"github.com/ovn-org/libovsdb/ovsdb"

	"github.com/nmstate/nmstate-engine/pkg/logging"
	"github.com/nmstate/nmstate-engine/pkg/nmerror"
)

// ErrNotFound is returned when an object is not found in the database.
var ErrNotFound = client.ErrNotFound

// retryInterval is the poll interval used while the client is
// reconnecting (spec §5 "OVSDB JSON-RPC socket reads/writes" is a
// suspension point).
const retryInterval = 200 * time.Millisecond

// TransactWithRetry executes a transaction, retrying on a disconnected
// client until ctx is cancelled (spec §4.G, §5 "Suspension points").
func TransactWithRetry(ctx context.Context, c client.Client, ops []ovsdb.Operation) ([]ovsdb.OperationResult, error) {
	log := logging.LoggerForBackend("ovsdb")
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		results, err := c.Transact(ctx, ops...)
		if err == nil {
			return results, nil
		}
		if !errors.Is(err, client.ErrNotConnected) {
			return nil, err
		}
		log.Debug("ovsdb client disconnected, retrying transaction", "ops", len(ops))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// TransactAndCheck executes a transaction and validates every
// operation's result, returning a PluginFailure on any error (spec §7
// "PluginFailure is a backend or OVSDB I/O error").
func TransactAndCheck(ctx context.Context, c client.Client, ops []ovsdb.Operation, timeout time.Duration) ([]ovsdb.OperationResult, error) {
	if len(ops) == 0 {
		return []ovsdb.OperationResult{{}}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := TransactWithRetry(ctx, c, ops)
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "ovsdb transaction failed (%d ops)", len(ops))
	}

	opErrors, err := ovsdb.CheckOperationResults(results, ops)
	if err != nil {
		return nil, nmerror.Wrap(nmerror.KindPluginFailure, err, "ovsdb operation failed: %v", opErrors)
	}
	return results, nil
}

// BuildNamedUUID generates a named UUID for insert operations so later
// operations in the same transaction can reference a not-yet-committed
// row (e.g. a synthesised OVS-port referencing its just-inserted
// interface).
func BuildNamedUUID(name string) string {
	return fmt.Sprintf("named-uuid-%s", name)
}

// IsNamedUUID reports whether uuid is a named, not-yet-committed UUID.
func IsNamedUUID(uuid string) bool {
	return len(uuid) > 11 && uuid[:11] == "named-uuid-"
}

// GetUUIDFromResult extracts the UUID assigned to an insert operation.
func GetUUIDFromResult(result ovsdb.OperationResult) string {
	return result.UUID.GoUUID
}
