package table_test

import (
	"testing"

	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/keeper"
	"github.com/vpbank/snmpagent/pkg/snmpagent/table"
)

func newUserTable() *table.Keeper {
	otypes := []models.OType{models.String, models.Integer, models.RowStatusType}
	access := []models.Access{models.ReadOnly, models.ReadWrite, models.ReadCreate}
	defaultRow := models.Row{models.VOctets(nil), models.VInt(0), models.VInt(int32(models.RowNotReady))}
	return table.New(models.OID{1, 3, 6, 1, 4, 1, 1, 1}, otypes, access, defaultRow, []int{1}, false)
}

func rowOID(base models.OID, col int, indexArcs ...uint32) models.OID {
	return base.Append(1, uint32(col)).Append(indexArcs...)
}

func TestSeed_IndexRoundTrip(t *testing.T) {
	k := newUserTable()
	base := models.OID{1, 3, 6, 1, 4, 1, 1, 1}
	rows := []models.Row{
		{models.VOctets([]byte("bob")), models.VInt(1), models.VInt(int32(models.RowActive))},
	}
	if err := k.Seed(rows); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	indexArcs, err := table.EncodeIndex([]models.OType{models.String, models.Integer, models.RowStatusType}, []int{1}, false, rows[0])
	if err != nil {
		t.Fatalf("EncodeIndex: %v", err)
	}
	oid := rowOID(base, 1, indexArcs...)
	v, err := k.Get(oid)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v.Bytes) != "bob" {
		t.Errorf("got %q, want %q", v.Bytes, "bob")
	}
}

func TestRowStatus_CreateAndWaitThenActive(t *testing.T) {
	k := newUserTable()
	base := models.OID{1, 3, 6, 1, 4, 1, 1, 1}
	nameArcs := []uint32{3, 'b', 'o', 'b'}
	statusOID := rowOID(base, 3, nameArcs...)

	if err := k.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if err := k.Set(statusOID, models.VInt(int32(models.RowCreateAndWait))); err != nil {
		t.Fatalf("Set createAndWait: %v", err)
	}
	if err := k.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	v, err := k.Get(statusOID)
	if err != nil {
		t.Fatalf("Get after createAndWait: %v", err)
	}
	if models.RowStatus(v.IntVal) != models.RowNotReady {
		t.Fatalf("row created via createAndWait must read back notReady until other columns are set, got %v", models.RowStatus(v.IntVal))
	}

	if err := k.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if err := k.Set(statusOID, models.VInt(int32(models.RowActive))); err != nil {
		t.Fatalf("Set active: %v", err)
	}
	if err := k.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	v, err = k.Get(statusOID)
	if err != nil {
		t.Fatalf("Get after activation: %v", err)
	}
	if models.RowStatus(v.IntVal) != models.RowActive {
		t.Errorf("got %v, want active", models.RowStatus(v.IntVal))
	}
}

func TestRowStatus_DestroyRemovesRow(t *testing.T) {
	k := newUserTable()
	base := models.OID{1, 3, 6, 1, 4, 1, 1, 1}
	if err := k.Seed([]models.Row{
		{models.VOctets([]byte("bob")), models.VInt(1), models.VInt(int32(models.RowActive))},
	}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	nameArcs := []uint32{3, 'b', 'o', 'b'}
	statusOID := rowOID(base, 3, nameArcs...)

	if err := k.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if err := k.Set(statusOID, models.VInt(int32(models.RowDestroy))); err != nil {
		t.Fatalf("Set destroy: %v", err)
	}
	if err := k.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := k.Get(statusOID); err == nil {
		t.Fatal("expected the destroyed row to be gone")
	}
}

func TestGetNext_AcrossRowsAndColumns(t *testing.T) {
	k := newUserTable()
	if err := k.Seed([]models.Row{
		{models.VOctets([]byte("alice")), models.VInt(1), models.VInt(int32(models.RowActive))},
		{models.VOctets([]byte("bob")), models.VInt(2), models.VInt(int32(models.RowActive))},
	}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	base := models.OID{1, 3, 6, 1, 4, 1, 1, 1}
	name, _, err := k.GetNext(base)
	if err != nil {
		t.Fatalf("GetNext from base: %v", err)
	}
	if !name.HasPrefix(base.Append(1, 1)) {
		t.Errorf("first GetNext should land on column 1 of the lexicographically first row, got %v", name)
	}

	// Walk until OutOfRange, counting steps; with 2 rows and 3 readable
	// columns (name, rowStatus — age is read-write but still readable) that
	// should be 2 rows * 3 readable columns = 6 steps total including the
	// first one already taken.
	steps := 1
	cur := name
	for {
		next, _, err := k.GetNext(cur)
		if err != nil {
			break
		}
		steps++
		cur = next
		if steps > 100 {
			t.Fatal("GetNext traversal did not terminate")
		}
	}
	if steps != 6 {
		t.Errorf("got %d GetNext steps across the table, want 6", steps)
	}
}

func TestSet_NonexistentRowRejected(t *testing.T) {
	k := newUserTable()
	base := models.OID{1, 3, 6, 1, 4, 1, 1, 1}
	oid := rowOID(base, 2, 3, 'x', 'y', 'z')

	if err := k.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	err := k.Set(oid, models.VInt(1))
	if kind, ok := keeper.As(err); !ok || kind != keeper.NoSuchInstance {
		t.Fatalf("Set on a nonexistent row: got %v, want NoSuchInstance", err)
	}
}

func TestGet_ColumnBeyondMaxRejected(t *testing.T) {
	k := newUserTable()
	base := models.OID{1, 3, 6, 1, 4, 1, 1, 1}
	oid := base.Append(1, table.MaxColumn+1, 1)

	_, err := k.Get(oid)
	if kind, ok := keeper.As(err); !ok || kind != keeper.NoSuchName {
		t.Fatalf("Get beyond MaxColumn: got %v, want NoSuchName", err)
	}
}

func TestRollback_DiscardsRowCreation(t *testing.T) {
	k := newUserTable()
	base := models.OID{1, 3, 6, 1, 4, 1, 1, 1}
	nameArcs := []uint32{3, 'b', 'o', 'b'}
	statusOID := rowOID(base, 3, nameArcs...)

	if err := k.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if err := k.Set(statusOID, models.VInt(int32(models.RowCreateAndWait))); err != nil {
		t.Fatalf("Set createAndWait: %v", err)
	}
	if err := k.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if _, err := k.Get(statusOID); err == nil {
		t.Fatal("a rolled-back row creation must not be visible")
	}
}
