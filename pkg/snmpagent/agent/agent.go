// Package agent implements the SNMPv3 dispatch loop (spec.md §4.5): a
// single-threaded, cooperative serve loop over a blocking UDP socket that
// decodes, authenticates, decrypts, dispatches, and re-encodes each
// datagram in strict sequence.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/audit"
	"github.com/vpbank/snmpagent/pkg/snmpagent/oidmap"
	"github.com/vpbank/snmpagent/pkg/snmpagent/usmuser"
	"github.com/vpbank/snmpagent/snmp/ber"
	"github.com/vpbank/snmpagent/snmp/usm"
)

// MaxDatagram is the maximum UDP datagram this agent will read (spec.md §6
// "Listening socket").
const MaxDatagram = 65100

// Counters tracks the agent's operational counters (spec.md §3 "Agent
// state").
type Counters struct {
	InPkts            int64
	UnknownEngineIDs  int64
	DecodeErrors      int64
	UnknownUserNames  int64
	WrongDigests      int64
	DecryptionErrors  int64
	NotInTimeWindows  int64
}

// Agent owns the engine ID, boot counter, user table, OID dispatch map, and
// operational counters (spec.md §3 "Agent state").
type Agent struct {
	EngineID   []byte
	startTime  time.Time
	bootCount  int32
	Users      *usmuser.Table
	Oids       *oidmap.OidMap

	Counters Counters

	// Audit records security-relevant actions (SetRequests, traps, engine-ID
	// discovery). A nil Audit is valid; Log.Record on a nil *Log is a no-op.
	Audit *audit.Log

	log *slog.Logger
}

// New constructs an Agent. oids must be Frozen before Serve is called.
func New(engineID []byte, bootCount int32, users *usmuser.Table, oids *oidmap.OidMap, log *slog.Logger) *Agent {
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		EngineID:  engineID,
		startTime: time.Now(),
		bootCount: bootCount,
		Users:     users,
		Oids:      oids,
		log:       log,
	}
}

// EngineTime returns the number of whole seconds since this agent instance
// started, the authoritative engineTime value used in USM timeliness
// checks (spec.md §4.4.3).
func (a *Agent) EngineTime() int32 {
	return int32(time.Since(a.startTime).Seconds())
}

// EngineBoots returns the persisted boot counter.
func (a *Agent) EngineBoots() int32 {
	return a.bootCount
}

// SetAudit installs the audit log used to record SetRequest outcomes, trap
// sends, and engine-ID discovery. Call before Serve.
func (a *Agent) SetAudit(log *audit.Log) {
	a.Audit = log
}

// Serve runs the blocking receive loop until ctx is cancelled. Each
// datagram is fully processed (decode, auth, decrypt, dispatch, encrypt,
// auth-stamp, send) before the next is read — there is no request-level
// parallelism (spec.md §5).
func (a *Agent) Serve(ctx context.Context, conn *net.UDPConn) error {
	buf := make([]byte, MaxDatagram)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return fmt.Errorf("agent: reading from socket: %w", err)
		}

		a.Counters.InPkts++
		resp, err := a.handleDatagram(append([]byte(nil), buf[:n]...))
		if err != nil {
			a.log.Debug("agent: dropping datagram", "peer", addr, "err", err)
			continue
		}
		if resp == nil {
			continue
		}
		if _, err := conn.WriteToUDP(resp, addr); err != nil {
			a.log.Warn("agent: sending response", "peer", addr, "err", err)
		}
	}
}

// handleDatagram runs one datagram through the full pipeline. A non-nil
// resp (a Response or a Report) is the only thing to send back. A non-nil
// error means the datagram was dropped and the relevant counter already
// incremented.
func (a *Agent) handleDatagram(raw []byte) ([]byte, error) {
	dec, err := ber.Decode(raw)
	if err != nil {
		a.Counters.DecodeErrors++
		return nil, fmt.Errorf("decode message: %w", err)
	}
	msg := dec.Msg

	authFlag := msg.Header.Flags&0x01 != 0
	privFlag := msg.Header.Flags&0x02 != 0

	// Engine-ID discovery: the sole path that bypasses user/auth checks
	// (spec.md §4.4.4).
	if len(msg.Security.EngineID) == 0 && !authFlag {
		return a.discoverEngine(msg)
	}

	user, ok := a.Users.Lookup(msg.Security.UserName)
	if !ok {
		a.Counters.UnknownUserNames++
		return nil, fmt.Errorf("unknown user %q", msg.Security.UserName)
	}

	if authFlag {
		ok, err := usm.Verify(user, raw, dec.AuthParamsStart, dec.AuthParamsLen)
		if err != nil {
			a.Counters.DecodeErrors++
			return nil, fmt.Errorf("verify auth: %w", err)
		}
		if !ok {
			a.Counters.WrongDigests++
			return nil, fmt.Errorf("digest mismatch")
		}
		if !usm.TimelinessOK(a.EngineBoots(), a.EngineTime(), msg.Security.EngineBoots, msg.Security.EngineTime) {
			a.Counters.NotInTimeWindows++
			return nil, fmt.Errorf("not in time window")
		}
	}

	var scopedBytes []byte
	if privFlag {
		pt, err := usm.Decrypt(user, msg.Security.EngineBoots, msg.Security.EngineTime, msg.Security.PrivParams, msg.ScopedEncrypted)
		if err != nil {
			a.Counters.DecryptionErrors++
			return nil, fmt.Errorf("decrypt: %w", err)
		}
		scopedBytes = pt
	}

	var scoped ber.ScopedPDU
	if msg.ScopedPlain != nil {
		scoped = *msg.ScopedPlain
	} else {
		s, _, err := ber.DecodeScopedPDU(scopedBytes, 0)
		if err != nil {
			a.Counters.DecodeErrors++
			return nil, fmt.Errorf("decode scoped pdu: %w", err)
		}
		scoped = s
	}

	respPDU := a.dispatch(scoped.PDU, user, msg.Header.Flags)

	respScoped := ber.ScopedPDU{
		ContextEngineID: a.EngineID,
		ContextName:     scoped.ContextName,
		PDU:             respPDU,
	}

	return a.assemble(msg, user, authFlag, privFlag, msg.Security.PrivParams, respScoped)
}

// discoverEngine answers an unauthenticated empty-engine-ID GetRequest with
// a Report carrying this agent's engine ID (spec.md §4.4.4).
func (a *Agent) discoverEngine(msg ber.Message) ([]byte, error) {
	a.Counters.UnknownEngineIDs++
	a.Audit.Record(models.AuditEvent{Kind: "discover", Result: "ok"})

	unknownEngineIDsOID, _ := models.ParseOID("1.3.6.1.6.3.15.1.1.4.0")
	var reqID int32
	var varbinds []ber.VarBind
	if msg.ScopedPlain != nil {
		reqID = msg.ScopedPlain.PDU.RequestID
		if len(msg.ScopedPlain.PDU.VarBinds) > 0 {
			varbinds = []ber.VarBind{ber.NewVarBind(unknownEngineIDsOID, models.VCounter32(uint32(a.Counters.UnknownEngineIDs)))}
		}
	}

	reportPDU := ber.PDU{
		Tag:       ber.TagReport,
		RequestID: reqID,
		VarBinds:  varbinds,
	}
	respScoped := ber.ScopedPDU{
		ContextEngineID: a.EngineID,
		ContextName:     nil,
		PDU:             reportPDU,
	}

	respMsg := ber.Message{
		Header: ber.HeaderData{
			MsgID:         msg.Header.MsgID,
			MsgMaxSize:    msg.Header.MsgMaxSize,
			Flags:         0,
			SecurityModel: ber.UsmSecurityModel,
		},
		Security: ber.USP{
			EngineID:    a.EngineID,
			EngineBoots: a.EngineBoots(),
			EngineTime:  a.EngineTime(),
			UserName:    nil,
			AuthParams:  nil,
			PrivParams:  nil,
		},
		ScopedPlain: &respScoped,
	}

	res, err := ber.Encode(respMsg)
	if err != nil {
		return nil, fmt.Errorf("encode discovery report: %w", err)
	}
	return res.Bytes, nil
}

// assemble encodes the response ScopedPDU, encrypts it if required, builds
// the response Message, and re-stamps authentication — the mirror image of
// the inbound decode/verify/decrypt steps (spec.md §4.4.1, §4.4.2). salt is
// the privacyParameters to encrypt the response under; a response to a
// request reuses the manager's own inbound salt rather than minting a new
// one (spec.md §4.4.2), so callers with no inbound salt to reuse (traps)
// pass nil and get a freshly generated one.
func (a *Agent) assemble(reqMsg ber.Message, user *models.User, authFlag, privFlag bool, salt []byte, respScoped ber.ScopedPDU) ([]byte, error) {
	respMsg := ber.Message{
		Header: ber.HeaderData{
			MsgID:         reqMsg.Header.MsgID,
			MsgMaxSize:    reqMsg.Header.MsgMaxSize,
			Flags:         reqMsg.Header.Flags,
			SecurityModel: ber.UsmSecurityModel,
		},
		Security: ber.USP{
			EngineID:    a.EngineID,
			EngineBoots: a.EngineBoots(),
			EngineTime:  a.EngineTime(),
			UserName:    user.Name,
			AuthParams:  usm.ZeroAuthParams,
			PrivParams:  nil,
		},
	}

	if privFlag {
		plain, err := respScoped.Encode()
		if err != nil {
			return nil, fmt.Errorf("encode response scoped pdu: %w", err)
		}
		if len(salt) == 0 {
			var err error
			salt, err = usm.NewSalt()
			if err != nil {
				return nil, fmt.Errorf("generating privacy salt: %w", err)
			}
		}
		ciphertext, err := usm.Encrypt(user, a.EngineBoots(), a.EngineTime(), salt, plain)
		if err != nil {
			return nil, fmt.Errorf("encrypting response: %w", err)
		}
		respMsg.Security.PrivParams = salt
		respMsg.ScopedEncrypted = ciphertext
	} else {
		respMsg.ScopedPlain = &respScoped
	}

	res, err := ber.Encode(respMsg)
	if err != nil {
		return nil, fmt.Errorf("encode response message: %w", err)
	}

	if authFlag {
		if err := usm.Stamp(user, res.Bytes, res.AuthParamsOffset); err != nil {
			return nil, fmt.Errorf("stamping response auth: %w", err)
		}
	}
	return res.Bytes, nil
}
