package scalar_test

import (
	"testing"

	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/keeper"
	"github.com/vpbank/snmpagent/pkg/snmpagent/scalar"
)

func base() models.OID { return models.OID{1, 3, 6, 1, 2, 1, 1, 5} }

func TestCommit_ObservesNewValue(t *testing.T) {
	k := scalar.New(base(), models.String, models.ReadWrite, models.VOctets([]byte("old")), nil)
	inst := base().Append(0)

	if err := k.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if err := k.Set(inst, models.VOctets([]byte("new"))); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := k.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	v, err := k.Get(inst)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v.Bytes) != "new" {
		t.Errorf("got %q, want %q", v.Bytes, "new")
	}
}

func TestRollback_RestoresPreviousValue(t *testing.T) {
	k := scalar.New(base(), models.String, models.ReadWrite, models.VOctets([]byte("old")), nil)
	inst := base().Append(0)

	if err := k.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if err := k.Set(inst, models.VOctets([]byte("new"))); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := k.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	v, err := k.Get(inst)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v.Bytes) != "old" {
		t.Errorf("got %q, want %q (rollback must not apply the pending set)", v.Bytes, "old")
	}
}

func TestSet_WithoutTransactionRejected(t *testing.T) {
	k := scalar.New(base(), models.String, models.ReadWrite, models.VOctets([]byte("old")), nil)
	inst := base().Append(0)

	if err := k.Set(inst, models.VOctets([]byte("new"))); err == nil {
		t.Fatal("Set outside a transaction must fail")
	}
}

func TestSet_ReadOnlyRejected(t *testing.T) {
	k := scalar.New(base(), models.String, models.ReadOnly, models.VOctets([]byte("old")), nil)
	inst := base().Append(0)

	if err := k.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	err := k.Set(inst, models.VOctets([]byte("new")))
	if kind, ok := keeper.As(err); !ok || kind != keeper.NotWritable {
		t.Fatalf("Set on read-only scalar: got %v, want NotWritable", err)
	}
}

func TestSet_WrongTypeRejected(t *testing.T) {
	k := scalar.New(base(), models.String, models.ReadWrite, models.VOctets([]byte("old")), nil)
	inst := base().Append(0)

	if err := k.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	err := k.Set(inst, models.VInt(42))
	if kind, ok := keeper.As(err); !ok || kind != keeper.WrongType {
		t.Fatalf("Set with mismatched type: got %v, want WrongType", err)
	}
}

func TestGetNext_AlwaysOutOfRange(t *testing.T) {
	k := scalar.New(base(), models.String, models.ReadOnly, models.VOctets([]byte("v")), nil)
	_, _, err := k.GetNext(base().Append(0))
	if kind, ok := keeper.As(err); !ok || kind != keeper.OutOfRange {
		t.Fatalf("GetNext on a scalar: got %v, want OutOfRange", err)
	}
}

func TestTestAndIncr_WraparoundAfterNSets(t *testing.T) {
	const initial = 1<<31 - 2
	k := scalar.New(base(), models.TestAndIncrType, models.ReadWrite, models.VInt(initial), nil)
	inst := base().Append(0)

	const n = 5
	for i := 0; i < n; i++ {
		cur, err := k.Get(inst)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if err := k.BeginTransaction(); err != nil {
			t.Fatalf("BeginTransaction: %v", err)
		}
		if err := k.Set(inst, cur); err != nil {
			t.Fatalf("Set at iteration %d: %v", i, err)
		}
		if err := k.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	v, err := k.Get(inst)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := int32((initial + n) % (1 << 31))
	if v.IntVal != want {
		t.Errorf("got %d, want %d", v.IntVal, want)
	}
}

func TestTestAndIncr_StaleValueRejected(t *testing.T) {
	k := scalar.New(base(), models.TestAndIncrType, models.ReadWrite, models.VInt(0), nil)
	inst := base().Append(0)

	if err := k.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	err := k.Set(inst, models.VInt(99))
	if kind, ok := keeper.As(err); !ok || kind != keeper.InconsistentValue {
		t.Fatalf("Set with stale TestAndIncr value: got %v, want InconsistentValue", err)
	}
}
