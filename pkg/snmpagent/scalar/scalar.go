// Package scalar implements ScalarKeeper (spec.md §4.2): a single typed
// value with access control, a two-phase begin/commit/rollback transaction,
// optional filesystem persistence, and the RFC 2579 TestAndIncr advisory
// lock.
package scalar

import (
	"log/slog"

	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/keeper"
)

// Keeper is an in-memory scalar object. Its sub-OID within the OidMap is
// always base.Append(0) — scalars have exactly one instance.
type Keeper struct {
	base  models.OID
	otype models.OType
	acc   models.Access

	value   models.Value
	pending models.Value
	inTxn   bool

	log *slog.Logger
}

// New constructs a ScalarKeeper rooted at base with the given type, access,
// and initial value.
func New(base models.OID, otype models.OType, acc models.Access, initial models.Value, log *slog.Logger) *Keeper {
	if log == nil {
		log = slog.Default()
	}
	return &Keeper{base: base.Clone(), otype: otype, acc: acc, value: initial, log: log}
}

func (k *Keeper) IsScalar() bool { return true }

func (k *Keeper) instanceOID() models.OID { return k.base.Append(0) }

func (k *Keeper) matches(o models.OID) bool {
	return o.Equal(k.instanceOID())
}

func (k *Keeper) Get(o models.OID) (models.Value, error) {
	if !k.matches(o) {
		return models.Value{}, keeper.New(keeper.NoSuchInstance)
	}
	if !k.acc.Readable() {
		return models.Value{}, keeper.New(keeper.NoAccess)
	}
	return k.value, nil
}

// GetNext always returns OutOfRange: the "next" object after a scalar's
// single instance lies outside its sub-OID (spec.md §4.2).
func (k *Keeper) GetNext(o models.OID) (models.OID, models.Value, error) {
	return nil, models.Value{}, keeper.New(keeper.OutOfRange)
}

func (k *Keeper) Access(o models.OID) (models.Access, error) {
	if !k.matches(o) {
		return 0, keeper.New(keeper.NoSuchInstance)
	}
	return k.acc, nil
}

func (k *Keeper) Set(o models.OID, v models.Value) error {
	if !k.inTxn {
		return keeper.New(keeper.WrongType)
	}
	if !k.matches(o) {
		return keeper.New(keeper.NoSuchInstance)
	}
	if !k.acc.Writable() {
		return keeper.New(keeper.NotWritable)
	}
	if k.otype == models.TestAndIncrType {
		cur, _ := k.value.AsUint32()
		nv, ok := v.AsUint32()
		if !ok || nv != cur {
			return keeper.New(keeper.InconsistentValue)
		}
		k.pending = models.VInt(int32((cur + 1) % (1 << 31)))
		return nil
	}
	if !v.MatchesType(k.otype) {
		return keeper.New(keeper.WrongType)
	}
	k.pending = v
	return nil
}

func (k *Keeper) BeginTransaction() error {
	if k.inTxn {
		k.inTxn = false
		return keeper.New(keeper.WrongType)
	}
	k.inTxn = true
	return nil
}

func (k *Keeper) Commit() error {
	k.value = k.pending
	k.inTxn = false
	return nil
}

func (k *Keeper) Rollback() error {
	k.inTxn = false
	return nil
}

// Value returns the current committed value (used by tests; not part of the
// Keeper interface).
func (k *Keeper) Value() models.Value { return k.value }
