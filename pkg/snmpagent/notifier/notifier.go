// Package notifier runs the optional trap-sender worker (spec.md §5
// "Notifier thread (optional): a trap sender may run on a separate worker
// that receives trap requests on a bounded channel; it is isolated from the
// serve loop and does not share mutable keeper state."). Trap content
// generation beyond this interface stub is out of scope (spec.md Non-goals).
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/agent"
	"github.com/vpbank/snmpagent/pkg/snmpagent/audit"
	"github.com/vpbank/snmpagent/snmp/ber"
)

// QueueDepth bounds the trap-request channel. A full queue means Send drops
// the request rather than blocking the caller, which must never be the
// serve loop itself.
const QueueDepth = 64

// Request describes one trap to send.
type Request struct {
	RequestID int32
	VarBinds  []ber.VarBind
	AuthFlag  bool
	PrivFlag  bool
}

// messageBuilder is the subset of *agent.Agent the notifier depends on,
// kept narrow so the worker never touches live keeper or dispatch state.
type messageBuilder interface {
	BuildTrapMessage(user *models.User, requestID int32, varbinds []ber.VarBind, authFlag, privFlag bool) ([]byte, error)
}

// Notifier owns the bounded trap-request queue and the single worker
// goroutine that drains it.
type Notifier struct {
	build messageBuilder
	user  *models.User
	conn  *net.UDPConn
	log   *slog.Logger
	audit *audit.Log

	reqs chan Request
	wg   sync.WaitGroup
}

// SetAudit installs the audit log used to record each trap send.
func (n *Notifier) SetAudit(a *audit.Log) {
	n.audit = a
}

// New resolves sinkAddr (host:port) and constructs a Notifier. Every trap
// it sends is stamped with user's credentials, so the trap sink must accept
// that USM identity.
func New(ag *agent.Agent, user *models.User, sinkAddr string, log *slog.Logger) (*Notifier, error) {
	if log == nil {
		log = slog.Default()
	}
	addr, err := net.ResolveUDPAddr("udp", sinkAddr)
	if err != nil {
		return nil, fmt.Errorf("notifier: resolving trap sink %s: %w", sinkAddr, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("notifier: dialing trap sink %s: %w", sinkAddr, err)
	}
	return &Notifier{
		build: ag,
		user:  user,
		conn:  conn,
		log:   log,
		reqs:  make(chan Request, QueueDepth),
	}, nil
}

// Start launches the worker goroutine and returns immediately. The worker
// exits once ctx is cancelled and the requests already queued are sent.
func (n *Notifier) Start(ctx context.Context) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case req := <-n.reqs:
						n.send(req)
					default:
						return
					}
				}
			case req := <-n.reqs:
				n.send(req)
			}
		}
	}()
}

// Send enqueues a trap request. It never blocks: if the queue is full the
// request is dropped and an error is returned, so a slow or unreachable
// trap sink can never back-pressure the caller.
func (n *Notifier) Send(req Request) error {
	select {
	case n.reqs <- req:
		return nil
	default:
		return fmt.Errorf("notifier: queue full, dropping trap request %d", req.RequestID)
	}
}

// Stop waits for the worker to exit (after its context is cancelled) and
// closes the sink connection.
func (n *Notifier) Stop() error {
	n.wg.Wait()
	return n.conn.Close()
}

func (n *Notifier) send(req Request) {
	msg, err := n.build.BuildTrapMessage(n.user, req.RequestID, req.VarBinds, req.AuthFlag, req.PrivFlag)
	if err != nil {
		n.log.Warn("notifier: building trap message", "err", err)
		n.audit.Record(models.AuditEvent{Kind: "trap", User: string(n.user.Name), Result: "error", Detail: err.Error()})
		return
	}
	if _, err := n.conn.Write(msg); err != nil {
		n.log.Warn("notifier: sending trap", "err", err)
		n.audit.Record(models.AuditEvent{Kind: "trap", User: string(n.user.Name), Result: "error", Detail: err.Error()})
		return
	}
	n.audit.Record(models.AuditEvent{Kind: "trap", User: string(n.user.Name), Result: "ok"})
}
