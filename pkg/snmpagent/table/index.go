package table

import (
	"fmt"

	"github.com/vpbank/snmpagent/models"
)

// EncodeIndex renders the index columns of row as the flat sequence of u32
// arcs used as the table's sort key (spec.md §4.3.1).
func EncodeIndex(otypes []models.OType, indexCols []int, impliedLast bool, row models.Row) ([]uint32, error) {
	var arcs []uint32
	for i, col := range indexCols {
		isLast := i == len(indexCols)-1
		colIdx := col - 1
		if colIdx < 0 || colIdx >= len(row) {
			return nil, fmt.Errorf("table: index column %d out of range", col)
		}
		v := row[colIdx]
		switch otypes[colIdx] {
		case models.Integer, models.TestAndIncrType, models.RowStatusType:
			u, ok := v.AsUint32()
			if !ok {
				return nil, fmt.Errorf("table: index column %d is not integer-valued", col)
			}
			arcs = append(arcs, u)
		case models.String:
			b := v.Bytes
			if !(isLast && impliedLast) {
				arcs = append(arcs, uint32(len(b)))
			}
			for _, by := range b {
				arcs = append(arcs, uint32(by))
			}
		case models.ObjectId:
			o := v.OID
			if !(isLast && impliedLast) {
				arcs = append(arcs, uint32(len(o)))
			}
			arcs = append(arcs, o...)
		default:
			return nil, fmt.Errorf("table: unsupported index column type %v", otypes[colIdx])
		}
	}
	return arcs, nil
}

// DecodeIndex reconstructs a row's index columns by consuming arcs left to
// right with the same length convention EncodeIndex uses. Non-index columns
// are filled from defaultRow, except that any RowStatus column is
// initialized to notReady (spec.md §4.3.1).
func DecodeIndex(otypes []models.OType, indexCols []int, impliedLast bool, defaultRow models.Row, arcs []uint32) (models.Row, error) {
	row := defaultRow.Clone()
	indexSet := make(map[int]bool, len(indexCols))
	pos := 0
	for i, col := range indexCols {
		isLast := i == len(indexCols)-1
		colIdx := col - 1
		indexSet[colIdx] = true
		if colIdx < 0 || colIdx >= len(row) {
			return nil, fmt.Errorf("table: index column %d out of range", col)
		}
		switch otypes[colIdx] {
		case models.Integer, models.TestAndIncrType, models.RowStatusType:
			if pos >= len(arcs) {
				return nil, fmt.Errorf("table: index arcs exhausted at column %d", col)
			}
			row[colIdx] = models.VInt(int32(arcs[pos]))
			pos++
		case models.String:
			var n int
			if isLast && impliedLast {
				n = len(arcs) - pos
			} else {
				if pos >= len(arcs) {
					return nil, fmt.Errorf("table: index arcs exhausted at column %d length", col)
				}
				n = int(arcs[pos])
				pos++
			}
			if n < 0 || pos+n > len(arcs) {
				return nil, fmt.Errorf("table: truncated octet-string index at column %d", col)
			}
			b := make([]byte, n)
			for j := 0; j < n; j++ {
				b[j] = byte(arcs[pos+j])
			}
			pos += n
			row[colIdx] = models.VOctets(b)
		case models.ObjectId:
			var n int
			if isLast && impliedLast {
				n = len(arcs) - pos
			} else {
				if pos >= len(arcs) {
					return nil, fmt.Errorf("table: index arcs exhausted at column %d length", col)
				}
				n = int(arcs[pos])
				pos++
			}
			if n < 0 || pos+n > len(arcs) {
				return nil, fmt.Errorf("table: truncated oid index at column %d", col)
			}
			o := make(models.OID, n)
			copy(o, arcs[pos:pos+n])
			pos += n
			row[colIdx] = models.VOid(o)
		default:
			return nil, fmt.Errorf("table: unsupported index column type %v", otypes[colIdx])
		}
	}
	if pos != len(arcs) {
		return nil, fmt.Errorf("table: trailing index arcs (%d unconsumed)", len(arcs)-pos)
	}
	for i := range row {
		if !indexSet[i] && otypes[i] == models.RowStatusType {
			row[i] = models.VInt(int32(models.RowNotReady))
		}
	}
	return row, nil
}

// compareArcs provides the lexicographic ordering rows are sorted under.
func compareArcs(a, b []uint32) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
