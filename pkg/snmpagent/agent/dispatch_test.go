package agent

import (
	"testing"

	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/keeper"
	"github.com/vpbank/snmpagent/pkg/snmpagent/oidmap"
	"github.com/vpbank/snmpagent/pkg/snmpagent/scalar"
	"github.com/vpbank/snmpagent/pkg/snmpagent/usmuser"
	"github.com/vpbank/snmpagent/snmp/ber"
)

func oid(s string) models.OID {
	o, err := models.ParseOID(s)
	if err != nil {
		panic(err)
	}
	return o
}

func fullAccessUser() *models.User {
	var authKey [20]byte
	return models.NewUser([]byte("admin"), authKey, make([]byte, 16), models.Permission{Read: true, Write: true, MinSecurityLevel: 1})
}

func newTestAgent(t *testing.T) (*Agent, *scalar.Keeper) {
	t.Helper()
	sysDescr := scalar.New(oid("1.3.6.1.2.1.1.1"), models.String, models.ReadOnly, models.VOctets([]byte("test agent")), nil)
	sysName := scalar.New(oid("1.3.6.1.2.1.1.5"), models.String, models.ReadWrite, models.VOctets([]byte("unset")), nil)

	om := oidmap.New()
	om.Register(oid("1.3.6.1.2.1.1.1"), sysDescr)
	om.Register(oid("1.3.6.1.2.1.1.5"), sysName)
	om.Freeze()

	users := usmuser.NewTable()
	users.Add(fullAccessUser())

	ag := New([]byte{0x80, 0x00, 0x00, 0x00, 0x06}, 1, users, om, nil)
	return ag, sysName
}

func TestHandleGet_ReturnsValue(t *testing.T) {
	ag, _ := newTestAgent(t)
	user := fullAccessUser()
	req := ber.PDU{Tag: ber.TagGetRequest, RequestID: 1, VarBinds: []ber.VarBind{ber.NewVarBind(oid("1.3.6.1.2.1.1.1.0"), models.Value{})}}

	resp := ag.handleGet(req, user, 0)
	if resp.ErrorStatus != 0 {
		t.Fatalf("ErrorStatus = %d, want 0", resp.ErrorStatus)
	}
	if string(resp.VarBinds[0].Val.Bytes) != "test agent" {
		t.Errorf("got %q, want %q", resp.VarBinds[0].Val.Bytes, "test agent")
	}
}

func TestHandleGet_NoSuchObject(t *testing.T) {
	ag, _ := newTestAgent(t)
	user := fullAccessUser()
	req := ber.PDU{Tag: ber.TagGetRequest, RequestID: 1, VarBinds: []ber.VarBind{ber.NewVarBind(oid("1.3.6.1.2.1.99.0"), models.Value{})}}

	resp := ag.handleGet(req, user, 0)
	if resp.VarBinds[0].Kind != ber.VBNoSuchObject {
		t.Errorf("got exception %v, want VBNoSuchObject", resp.VarBinds[0].Kind)
	}
}

func TestHandleGetNext_WalksAcrossScalars(t *testing.T) {
	ag, _ := newTestAgent(t)
	user := fullAccessUser()
	req := ber.PDU{Tag: ber.TagGetNextRequest, RequestID: 1, VarBinds: []ber.VarBind{ber.NewVarBind(oid("1.3.6.1.2.1.1.1"), models.Value{})}}

	resp := ag.handleGetNext(req, user, 0)
	if resp.ErrorStatus != 0 {
		t.Fatalf("ErrorStatus = %d", resp.ErrorStatus)
	}
	if !resp.VarBinds[0].Name.Equal(oid("1.3.6.1.2.1.1.1.0")) {
		t.Errorf("got %v, want the sysDescr instance", resp.VarBinds[0].Name)
	}

	// Walking past the last keeper's last instance must yield EndOfMibView.
	req2 := ber.PDU{Tag: ber.TagGetNextRequest, RequestID: 2, VarBinds: []ber.VarBind{ber.NewVarBind(oid("1.3.6.1.2.1.1.5.0"), models.Value{})}}
	resp2 := ag.handleGetNext(req2, user, 0)
	if resp2.VarBinds[0].Kind != ber.VBEndOfMibView {
		t.Errorf("got exception %v, want VBEndOfMibView", resp2.VarBinds[0].Kind)
	}
}

func TestHandleSet_CommitsOnSuccess(t *testing.T) {
	ag, sysName := newTestAgent(t)
	user := fullAccessUser()
	req := ber.PDU{Tag: ber.TagSetRequest, RequestID: 1, VarBinds: []ber.VarBind{
		ber.NewVarBind(oid("1.3.6.1.2.1.1.5.0"), models.VOctets([]byte("renamed"))),
	}}

	resp := ag.handleSet(req, user, 0)
	if resp.ErrorStatus != 0 {
		t.Fatalf("ErrorStatus = %d", resp.ErrorStatus)
	}
	if string(sysName.Value().Bytes) != "renamed" {
		t.Errorf("got %q, want %q", sysName.Value().Bytes, "renamed")
	}
}

func TestHandleSet_ReadOnlyColumnRolledBack(t *testing.T) {
	ag, _ := newTestAgent(t)
	user := fullAccessUser()
	req := ber.PDU{Tag: ber.TagSetRequest, RequestID: 1, VarBinds: []ber.VarBind{
		ber.NewVarBind(oid("1.3.6.1.2.1.1.1.0"), models.VOctets([]byte("nope"))),
	}}

	resp := ag.handleSet(req, user, 0)
	if resp.ErrorStatus != keeper.ErrStatusNotWritable {
		t.Errorf("ErrorStatus = %d, want %d (NotWritable)", resp.ErrorStatus, keeper.ErrStatusNotWritable)
	}
}

func TestHandleSet_NoAccessUserRejected(t *testing.T) {
	ag, sysName := newTestAgent(t)
	readOnlyUser := models.NewUser([]byte("viewer"), [20]byte{}, make([]byte, 16), models.Permission{Read: true, Write: false, MinSecurityLevel: 1})
	req := ber.PDU{Tag: ber.TagSetRequest, RequestID: 1, VarBinds: []ber.VarBind{
		ber.NewVarBind(oid("1.3.6.1.2.1.1.5.0"), models.VOctets([]byte("hacked"))),
	}}

	resp := ag.handleSet(req, readOnlyUser, 0)
	if resp.ErrorStatus != keeper.ErrStatusNoAccess {
		t.Errorf("ErrorStatus = %d, want %d (NoAccess)", resp.ErrorStatus, keeper.ErrStatusNoAccess)
	}
	if string(sysName.Value().Bytes) != "unset" {
		t.Error("a rejected Set must not mutate the scalar")
	}
}

func TestHandleGetBulk_MaxRepetitionsZero(t *testing.T) {
	ag, _ := newTestAgent(t)
	user := fullAccessUser()
	req := ber.PDU{
		Tag:       ber.TagGetBulkRequest,
		RequestID: 1,
		VarBinds: []ber.VarBind{
			ber.NewVarBind(oid("1.3.6.1.2.1.1.1"), models.Value{}),
			ber.NewVarBind(oid("1.3.6.1.2.1.1.5"), models.Value{}),
		},
		ErrorStatus: 1, // non_repeaters encoded in ErrorStatus per RFC 3416 GetBulk
		ErrorIndex:  0, // max_repetitions encoded in ErrorIndex
	}

	resp := ag.handleGetBulk(req, user, 0)
	if len(resp.VarBinds) != 1 {
		t.Fatalf("got %d varbinds, want 1 (only the non-repeater)", len(resp.VarBinds))
	}
}
