package agent

import (
	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/snmp/ber"
)

// BuildTrapMessage encodes a v3 Trap PDU carrying varbinds, authenticated
// and (if requested) encrypted under user, using this agent's own engine
// ID/boots/time (spec.md §5 "Notifier thread (optional)"; trap PDU
// generation itself is an interface stub, not a full notification
// originator per spec.md's Non-goals).
func (a *Agent) BuildTrapMessage(user *models.User, requestID int32, varbinds []ber.VarBind, authFlag, privFlag bool) ([]byte, error) {
	var flags byte
	if authFlag {
		flags |= 0x01
	}
	if privFlag {
		flags |= 0x02
	}

	scoped := ber.ScopedPDU{
		ContextEngineID: a.EngineID,
		PDU: ber.PDU{
			Tag:       ber.TagTrap,
			RequestID: requestID,
			VarBinds:  varbinds,
		},
	}
	reqMsg := ber.Message{
		Header: ber.HeaderData{MsgID: requestID, MsgMaxSize: MaxDatagram, Flags: flags},
		Security: ber.USP{
			UserName: user.Name,
		},
	}
	return a.assemble(reqMsg, user, authFlag, privFlag, nil, scoped)
}
