package agent

import (
	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/keeper"
	"github.com/vpbank/snmpagent/snmp/ber"
)

// dispatch routes a decoded PDU to its per-type handler (spec.md §4.5.1)
// and returns the response PDU with matching RequestID/Tag.
func (a *Agent) dispatch(req ber.PDU, user *models.User, flags byte) ber.PDU {
	switch req.Tag {
	case ber.TagGetRequest:
		return a.handleGet(req, user, flags)
	case ber.TagGetNextRequest:
		return a.handleGetNext(req, user, flags)
	case ber.TagGetBulkRequest:
		return a.handleGetBulk(req, user, flags)
	case ber.TagSetRequest:
		return a.handleSet(req, user, flags)
	default:
		return ber.PDU{Tag: ber.TagResponse, RequestID: req.RequestID, ErrorStatus: keeper.ErrStatusGenErr, ErrorIndex: 0}
	}
}

func (a *Agent) checkAccess(user *models.User, flags byte, write bool) bool {
	return user.Permission.Allows(flags, write)
}

// handleGet implements spec.md §4.5.1 GetRequest.
func (a *Agent) handleGet(req ber.PDU, user *models.User, flags byte) ber.PDU {
	out := make([]ber.VarBind, len(req.VarBinds))
	var errStatus int32
	var errIndex int32

	for i, vb := range req.VarBinds {
		if !a.checkAccess(user, flags, false) {
			out[i] = ber.NewVarBind(vb.Name, models.Value{})
			if errStatus == 0 {
				errStatus = keeper.ErrStatusNoAccess
				errIndex = int32(i + 1)
			}
			continue
		}
		k, ok := a.Oids.Resolve(vb.Name)
		if !ok {
			out[i] = ber.NewExceptionVarBind(vb.Name, ber.VBNoSuchObject)
			continue
		}
		v, err := k.Get(vb.Name)
		if err != nil {
			if kind, ok := keeper.As(err); ok {
				switch kind {
				case keeper.NoSuchInstance:
					out[i] = ber.NewExceptionVarBind(vb.Name, ber.VBNoSuchInstance)
					continue
				case keeper.NoSuchName:
					out[i] = ber.NewExceptionVarBind(vb.Name, ber.VBNoSuchObject)
					continue
				case keeper.NoAccess:
					if errStatus == 0 {
						errStatus = keeper.ErrStatusNoAccess
						errIndex = int32(i + 1)
					}
					out[i] = ber.NewVarBind(vb.Name, models.Value{})
					continue
				}
			}
			if errStatus == 0 {
				errStatus = keeper.ErrStatusGenErr
				errIndex = int32(i + 1)
			}
			out[i] = ber.NewVarBind(vb.Name, models.Value{})
			continue
		}
		out[i] = ber.NewVarBind(vb.Name, v)
	}

	return ber.PDU{Tag: ber.TagResponse, RequestID: req.RequestID, ErrorStatus: errStatus, ErrorIndex: errIndex, VarBinds: out}
}

// firstReadableCell returns the first object a freshly-entered keeper
// offers to a GetNext walk (spec.md §4.5.1: "advance to the next keeper...
// and return its first readable cell"). A scalar's only object is its
// instance at base.0; a table's is whatever its own GetNext yields for an
// empty suffix (its first row, first readable column — spec.md §4.3.4).
func firstReadableCell(k keeper.Keeper, base models.OID) (models.OID, models.Value, bool) {
	if k.IsScalar() {
		inst := base.Append(0)
		v, err := k.Get(inst)
		if err != nil {
			return nil, models.Value{}, false
		}
		return inst, v, true
	}
	name, v, err := k.GetNext(base)
	if err != nil {
		return nil, models.Value{}, false
	}
	return name, v, true
}

// getNextOne resolves the single next (name, value) pair after n, advancing
// across keeper boundaries as needed (spec.md §4.5.1 GetNextRequest,
// §4.3.4). ok is false once traversal has run off the end of the OidMap.
func (a *Agent) getNextOne(n models.OID) (models.OID, models.Value, bool) {
	idx, exact := a.Oids.Search(n)
	startIdx := idx
	// An exact match on a keeper's base enters that keeper fresh (through
	// firstReadableCell below), so a scalar's own instance is not skipped.
	owned := false
	if !exact && idx > 0 && n.HasPrefix(a.Oids.Oid(idx-1)) {
		startIdx = idx - 1
		owned = true
	}

	i := startIdx
	if owned {
		k := a.Oids.Idx(i)
		name, v, err := k.GetNext(n)
		if err == nil {
			return name, v, true
		}
		i++
	}
	for ; i < a.Oids.Len(); i++ {
		if name, v, ok := firstReadableCell(a.Oids.Idx(i), a.Oids.Oid(i)); ok {
			return name, v, true
		}
	}
	return nil, models.Value{}, false
}

// handleGetNext implements spec.md §4.5.1 GetNextRequest.
func (a *Agent) handleGetNext(req ber.PDU, user *models.User, flags byte) ber.PDU {
	out := make([]ber.VarBind, len(req.VarBinds))
	var errStatus int32
	var errIndex int32

	for i, vb := range req.VarBinds {
		if !a.checkAccess(user, flags, false) {
			out[i] = ber.NewVarBind(vb.Name, models.Value{})
			if errStatus == 0 {
				errStatus = keeper.ErrStatusNoAccess
				errIndex = int32(i + 1)
			}
			continue
		}
		name, v, ok := a.getNextOne(vb.Name)
		if !ok {
			out[i] = ber.NewExceptionVarBind(vb.Name, ber.VBEndOfMibView)
			continue
		}
		out[i] = ber.NewVarBind(name, v)
	}

	return ber.PDU{Tag: ber.TagResponse, RequestID: req.RequestID, ErrorStatus: errStatus, ErrorIndex: errIndex, VarBinds: out}
}

// handleGetBulk implements spec.md §4.5.1 GetBulkRequest: the first
// non_repeaters varbinds are single GetNext steps; the remaining varbinds
// each drive max_repetitions GetNext iterations, feeding each result's name
// back in as the next iteration's input.
func (a *Agent) handleGetBulk(req ber.PDU, user *models.User, flags byte) ber.PDU {
	nonRepeaters := int(req.NonRepeaters())
	if nonRepeaters < 0 {
		nonRepeaters = 0
	}
	if nonRepeaters > len(req.VarBinds) {
		nonRepeaters = len(req.VarBinds)
	}
	maxReps := int(req.MaxRepetitions())
	if maxReps < 0 {
		maxReps = 0
	}

	var out []ber.VarBind

	for i := 0; i < nonRepeaters; i++ {
		vb := req.VarBinds[i]
		if !a.checkAccess(user, flags, false) {
			out = append(out, ber.NewVarBind(vb.Name, models.Value{}))
			continue
		}
		name, v, ok := a.getNextOne(vb.Name)
		if !ok {
			out = append(out, ber.NewExceptionVarBind(vb.Name, ber.VBEndOfMibView))
			continue
		}
		out = append(out, ber.NewVarBind(name, v))
	}

	repeaters := req.VarBinds[nonRepeaters:]
	current := make([]models.OID, len(repeaters))
	done := make([]bool, len(repeaters))
	for i, vb := range repeaters {
		current[i] = vb.Name
		if !a.checkAccess(user, flags, false) {
			done[i] = true
		}
	}

	for rep := 0; rep < maxReps; rep++ {
		allDone := true
		for i := range repeaters {
			if done[i] {
				continue
			}
			name, v, ok := a.getNextOne(current[i])
			if !ok {
				out = append(out, ber.NewExceptionVarBind(current[i], ber.VBEndOfMibView))
				done[i] = true
				continue
			}
			out = append(out, ber.NewVarBind(name, v))
			current[i] = name
			allDone = false
		}
		if allDone {
			break
		}
	}

	return ber.PDU{Tag: ber.TagResponse, RequestID: req.RequestID, VarBinds: out}
}

// handleSet implements the three-phase SetRequest protocol of spec.md
// §4.5.1: begin_transaction on every distinct targeted keeper, then set
// each varbind in order (aborting and rolling back all on first failure),
// then commit all.
func (a *Agent) handleSet(req ber.PDU, user *models.User, flags byte) ber.PDU {
	if !a.checkAccess(user, flags, true) {
		return ber.PDU{Tag: ber.TagResponse, RequestID: req.RequestID, ErrorStatus: keeper.ErrStatusNoAccess, ErrorIndex: 1, VarBinds: req.VarBinds}
	}

	keepers := make([]keeperT, 0, len(req.VarBinds))
	seen := make(map[keeperT]bool)
	for _, vb := range req.VarBinds {
		k, ok := a.Oids.Resolve(vb.Name)
		if !ok {
			return ber.PDU{Tag: ber.TagResponse, RequestID: req.RequestID, ErrorStatus: keeper.ErrStatusNoSuchName, ErrorIndex: 1, VarBinds: req.VarBinds}
		}
		if !seen[k] {
			seen[k] = true
			keepers = append(keepers, k)
		}
	}

	// Phase 1: begin_transaction on every distinct keeper.
	begun := make([]keeperT, 0, len(keepers))
	for _, k := range keepers {
		if err := k.BeginTransaction(); err != nil {
			for _, b := range begun {
				b.Rollback()
			}
			return ber.PDU{Tag: ber.TagResponse, RequestID: req.RequestID, ErrorStatus: keeper.ErrStatusResourceUnavailable, ErrorIndex: 1, VarBinds: req.VarBinds}
		}
		begun = append(begun, k)
	}

	// Phase 2: set each varbind in wire order.
	for i, vb := range req.VarBinds {
		k, _ := a.Oids.Resolve(vb.Name)
		if err := k.Set(vb.Name, vb.Val); err != nil {
			for _, b := range begun {
				b.Rollback()
			}
			kind, _ := keeper.As(err)
			a.Audit.Record(models.AuditEvent{Kind: "set", User: string(user.Name), OID: vb.Name.String(), Result: kind.String()})
			return ber.PDU{Tag: ber.TagResponse, RequestID: req.RequestID, ErrorStatus: keeper.ErrorStatusFor(kind), ErrorIndex: int32(i + 1), VarBinds: req.VarBinds}
		}
	}

	// Phase 3: commit all.
	for _, k := range begun {
		if err := k.Commit(); err != nil {
			return ber.PDU{Tag: ber.TagResponse, RequestID: req.RequestID, ErrorStatus: keeper.ErrStatusCommitFailed, ErrorIndex: 1, VarBinds: req.VarBinds}
		}
	}

	for _, vb := range req.VarBinds {
		a.Audit.Record(models.AuditEvent{Kind: "set", User: string(user.Name), OID: vb.Name.String(), Result: "ok"})
	}
	return ber.PDU{Tag: ber.TagResponse, RequestID: req.RequestID, VarBinds: req.VarBinds}
}

// keeperT is the Keeper interface, aliased locally so the dedup map key
// (which requires a comparable type) reads clearly at call sites.
type keeperT = keeper.Keeper
