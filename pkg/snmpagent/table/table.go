// Package table implements TableKeeper (spec.md §4.3): a typed-index
// conceptual-table row store with lexicographic GetNext traversal,
// RowStatus-driven row creation/deletion, and a two-phase transaction
// protocol. Per spec.md §9's open question on transaction strength, Set
// mutations are staged into a full shadow copy of the row set and only
// swapped in at Commit — Rollback always restores exactly the pre-
// transaction state, never a partially-applied one.
package table

import (
	"sort"

	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/keeper"
)

// MaxColumn is the denial-of-service guard on the column field of an
// instance OID (spec.md §4.3.2).
const MaxColumn = 16384

type rowEntry struct {
	index []uint32
	row   models.Row
}

// Keeper is a conceptual SNMP table: rows sorted by their index arcs,
// addressed at base.1.column.index… (spec.md §4.3.2).
type Keeper struct {
	base        models.OID
	otypes      []models.OType
	access      []models.Access
	defaultRow  models.Row
	indexCols   []int // 1-based
	impliedLast bool
	cols        int

	rows []rowEntry

	inTxn   bool
	pending []rowEntry
}

// New constructs a TableKeeper. otypes/access/defaultRow must all have
// length cols; indexCols entries must lie in [1,cols].
func New(base models.OID, otypes []models.OType, access []models.Access, defaultRow models.Row, indexCols []int, impliedLast bool) *Keeper {
	cols := len(otypes)
	if len(access) != cols || len(defaultRow) != cols {
		panic("table: otypes, access, and defaultRow must have equal length")
	}
	for _, c := range indexCols {
		if c < 1 || c > cols {
			panic("table: index column out of range")
		}
	}
	return &Keeper{
		base:        base.Clone(),
		otypes:      otypes,
		access:      access,
		defaultRow:  defaultRow.Clone(),
		indexCols:   append([]int(nil), indexCols...),
		impliedLast: impliedLast,
		cols:        cols,
	}
}

func (k *Keeper) IsScalar() bool { return false }

// findExact returns the position of the row whose index equals arcs, if any.
func findExact(rows []rowEntry, arcs []uint32) (int, bool) {
	i := sort.Search(len(rows), func(i int) bool {
		return compareArcs(rows[i].index, arcs) >= 0
	})
	if i < len(rows) && compareArcs(rows[i].index, arcs) == 0 {
		return i, true
	}
	return i, false
}

// instanceSuffix decodes a request OID into (column, indexArcs), validating
// the conceptual-row marker and column bounds (spec.md §4.3.2, §4.3.3).
func (k *Keeper) instanceSuffix(o models.OID) (column int, indexArcs []uint32, err error) {
	if !o.HasPrefix(k.base) {
		return 0, nil, keeper.New(keeper.NoSuchInstance)
	}
	s := o.Suffix(k.base)
	if len(s) < 3 {
		return 0, nil, keeper.New(keeper.NoSuchInstance)
	}
	if s[0] != 1 {
		return 0, nil, keeper.New(keeper.NoSuchName)
	}
	col := int(s[1])
	if col < 1 || col > k.cols || col > MaxColumn {
		return 0, nil, keeper.New(keeper.NoSuchName)
	}
	return col, s[2:], nil
}

func (k *Keeper) Get(o models.OID) (models.Value, error) {
	col, idx, err := k.instanceSuffix(o)
	if err != nil {
		return models.Value{}, err
	}
	i, ok := findExact(k.rows, idx)
	if !ok {
		return models.Value{}, keeper.New(keeper.NoSuchName)
	}
	if !k.access[col-1].Readable() {
		return models.Value{}, keeper.New(keeper.NoAccess)
	}
	return k.rows[i].row[col-1], nil
}

func (k *Keeper) Access(o models.OID) (models.Access, error) {
	col, _, err := k.instanceSuffix(o)
	if err != nil {
		return 0, err
	}
	return k.access[col-1], nil
}

// firstReadableColumn returns the lowest 1-based column number whose access
// permits read, or 0 if none does.
func (k *Keeper) firstReadableColumn() int {
	for c := 1; c <= k.cols; c++ {
		if k.access[c-1].Readable() {
			return c
		}
	}
	return 0
}

func (k *Keeper) nextReadableColumn(c int) int {
	for c++; c <= k.cols; c++ {
		if k.access[c-1].Readable() {
			return c
		}
	}
	return 0
}

// GetNext implements the lexicographic traversal of spec.md §4.3.4.
func (k *Keeper) GetNext(o models.OID) (models.OID, models.Value, error) {
	if len(k.rows) == 0 {
		return nil, models.Value{}, keeper.New(keeper.OutOfRange)
	}
	s := o
	if o.HasPrefix(k.base) {
		s = o.Suffix(k.base)
	} else {
		s = nil
	}

	var col int
	var rowIdx int
	var haveRowIdx bool

	if len(s) >= 3 {
		col = int(s[1])
		if col < 1 || col > k.cols || col > MaxColumn {
			return nil, models.Value{}, keeper.New(keeper.OutOfRange)
		}
		i, exact := findExact(k.rows, s[2:])
		if exact {
			rowIdx = i + 1
		} else {
			rowIdx = i
		}
		haveRowIdx = true
	} else {
		col = k.firstReadableColumn()
		if col == 0 {
			return nil, models.Value{}, keeper.New(keeper.OutOfRange)
		}
		rowIdx = 0
		haveRowIdx = true
	}

	for {
		if !k.access[col-1].Readable() {
			next := k.nextReadableColumn(col)
			if next == 0 {
				return nil, models.Value{}, keeper.New(keeper.OutOfRange)
			}
			col = next
			rowIdx = 0
			continue
		}
		if haveRowIdx && rowIdx < len(k.rows) {
			row := k.rows[rowIdx]
			name := k.base.Append(1, uint32(col)).Append(row.index...)
			return name, row.row[col-1], nil
		}
		next := k.nextReadableColumn(col)
		if next == 0 {
			return nil, models.Value{}, keeper.New(keeper.OutOfRange)
		}
		col = next
		rowIdx = 0
	}
}

func (k *Keeper) Set(o models.OID, v models.Value) error {
	if !k.inTxn {
		return keeper.New(keeper.WrongType)
	}
	col, idx, err := k.instanceSuffix(o)
	if err != nil {
		return err
	}
	colIdx := col - 1

	if k.otypes[colIdx] == models.RowStatusType {
		return k.setRowStatus(colIdx, idx, v)
	}

	i, ok := findExact(k.pending, idx)
	if !ok {
		return keeper.New(keeper.NoSuchInstance)
	}
	if !k.access[colIdx].Writable() {
		return keeper.New(keeper.NotWritable)
	}
	if !v.MatchesType(k.otypes[colIdx]) {
		return keeper.New(keeper.WrongType)
	}
	k.pending[i].row[colIdx] = v
	return nil
}

// setRowStatus implements the RowStatus write-transition table of spec.md
// §4.3.5.
func (k *Keeper) setRowStatus(colIdx int, idx []uint32, v models.Value) error {
	if v.Kind != models.KindInteger {
		return keeper.New(keeper.WrongType)
	}
	status := models.RowStatus(v.IntVal)
	if !status.Valid() {
		return keeper.New(keeper.WrongType)
	}

	i, exists := findExact(k.pending, idx)

	switch status {
	case models.RowActive, models.RowNotInService:
		if !exists {
			return keeper.New(keeper.NoSuchInstance)
		}
		k.pending[i].row[colIdx] = v
		return nil
	case models.RowNotReady:
		return keeper.New(keeper.WrongType)
	case models.RowCreateAndGo:
		return keeper.New(keeper.WrongType)
	case models.RowCreateAndWait:
		if exists {
			return keeper.New(keeper.InconsistentValue)
		}
		row, err := DecodeIndex(k.otypes, k.indexCols, k.impliedLast, k.defaultRow, idx)
		if err != nil {
			return keeper.New(keeper.InconsistentValue)
		}
		insertAt := i
		k.pending = append(k.pending, rowEntry{})
		copy(k.pending[insertAt+1:], k.pending[insertAt:])
		k.pending[insertAt] = rowEntry{index: append([]uint32(nil), idx...), row: row}
		return nil
	case models.RowDestroy:
		if !exists {
			return keeper.New(keeper.NoSuchInstance)
		}
		k.pending = append(k.pending[:i], k.pending[i+1:]...)
		return nil
	default:
		return keeper.New(keeper.WrongType)
	}
}

func cloneRows(rows []rowEntry) []rowEntry {
	out := make([]rowEntry, len(rows))
	for i, r := range rows {
		out[i] = rowEntry{index: append([]uint32(nil), r.index...), row: r.row.Clone()}
	}
	return out
}

func (k *Keeper) BeginTransaction() error {
	if k.inTxn {
		k.inTxn = false
		return keeper.New(keeper.WrongType)
	}
	k.inTxn = true
	k.pending = cloneRows(k.rows)
	return nil
}

func (k *Keeper) Commit() error {
	k.rows = k.pending
	k.pending = nil
	k.inTxn = false
	return nil
}

func (k *Keeper) Rollback() error {
	k.pending = nil
	k.inTxn = false
	return nil
}

// Rows returns the committed rows for inspection; not part of the Keeper
// interface.
func (k *Keeper) Rows() []models.Row {
	out := make([]models.Row, len(k.rows))
	for i, r := range k.rows {
		out[i] = r.row
	}
	return out
}

// Seed installs rows directly into the committed row set, sorted by index
// arcs, bypassing the transaction/RowStatus protocol entirely. It is meant
// for tables whose contents are fixed at registration time and never
// mutated through SetRequest (e.g. a read-only snapshot view over another
// in-memory store), so it must only be called before the keeper is
// registered into an OidMap and served.
func (k *Keeper) Seed(rows []models.Row) error {
	entries := make([]rowEntry, 0, len(rows))
	for _, row := range rows {
		idx, err := EncodeIndex(k.otypes, k.indexCols, k.impliedLast, row)
		if err != nil {
			return err
		}
		entries = append(entries, rowEntry{index: idx, row: row.Clone()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return compareArcs(entries[i].index, entries[j].index) < 0
	})
	k.rows = entries
	return nil
}
