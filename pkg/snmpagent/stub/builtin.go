package stub

import (
	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/agent"
	"github.com/vpbank/snmpagent/pkg/snmpagent/config"
	"github.com/vpbank/snmpagent/pkg/snmpagent/keeper"
	"github.com/vpbank/snmpagent/pkg/snmpagent/oidmap"
	"github.com/vpbank/snmpagent/pkg/snmpagent/scalar"
	"github.com/vpbank/snmpagent/pkg/snmpagent/table"
	"github.com/vpbank/snmpagent/pkg/snmpagent/usmuser"
)

var (
	oidSystem    = mustOID("1.3.6.1.2.1.1")
	oidUsmStats  = mustOID("1.3.6.1.6.3.15.1.1")
	oidUsmUser   = mustOID("1.3.6.1.6.3.15.1.2.2")
)

func mustOID(s string) models.OID {
	o, err := models.ParseOID(s)
	if err != nil {
		panic(err)
	}
	return o
}

// SystemGroup is a LoadFunc that registers the standard MIB-II system
// scalars (sysDescr, sysObjectID, sysContact, sysName, sysLocation,
// sysServices) at 1.3.6.1.2.1.1.{1,2,4,5,6,7}, plus sysUpTime at
// 1.3.6.1.2.1.1.3, which is derived entirely from Agent.EngineTime and has
// no persisted storage of its own.
func SystemGroup(sysDescr, sysContact, sysName, sysLocation string, sysServices int32) LoadFunc {
	return func(oids *oidmap.OidMap, cfg *config.Config, ag *agent.Agent, users *usmuser.Table, compliance *Compliance) error {
		reg := func(arc uint32, otype models.OType, acc models.Access, v models.Value) {
			base := oidSystem.Append(arc)
			oids.Register(base, scalar.New(base, otype, acc, v, nil))
		}
		reg(1, models.String, models.ReadOnly, models.VOctets([]byte(sysDescr)))
		reg(2, models.ObjectId, models.ReadOnly, models.VOid(oidSystem.Clone()))
		reg(4, models.String, models.ReadWrite, models.VOctets([]byte(sysContact)))
		reg(5, models.String, models.ReadWrite, models.VOctets([]byte(sysName)))
		reg(6, models.String, models.ReadWrite, models.VOctets([]byte(sysLocation)))
		reg(7, models.Integer, models.ReadOnly, models.VInt(sysServices))

		base := oidSystem.Append(3)
		oids.Register(base, &upTimeKeeper{base: base, ag: ag})

		compliance.Record("SNMPv2-MIB", "systemGroup", []string{
			"sysDescr", "sysObjectID", "sysUpTime", "sysContact", "sysName", "sysLocation", "sysServices",
		})
		return nil
	}
}

// UsmStatsGroup is a LoadFunc that registers the USM statistics counters
// (RFC 3414 §5) as read-only scalars backed directly by the agent's own
// Counters, so their values always reflect live traffic rather than a
// snapshot taken at startup.
func UsmStatsGroup() LoadFunc {
	return func(oids *oidmap.OidMap, cfg *config.Config, ag *agent.Agent, users *usmuser.Table, compliance *Compliance) error {
		register := func(arc uint32, get func() int64) {
			base := oidUsmStats.Append(arc)
			oids.Register(base, &counterKeeper{base: base, get: get})
		}
		register(3, func() int64 { return ag.Counters.UnknownUserNames })
		register(5, func() int64 { return ag.Counters.WrongDigests })
		register(2, func() int64 { return ag.Counters.NotInTimeWindows })
		register(4, func() int64 { return ag.Counters.UnknownEngineIDs })
		register(6, func() int64 { return ag.Counters.DecryptionErrors })
		compliance.Record("SNMP-USER-BASED-SM-MIB", "usmStatsGroup", []string{
			"usmStatsUnknownUserNames", "usmStatsWrongDigests", "usmStatsNotInTimeWindows",
			"usmStatsUnknownEngineIDs", "usmStatsDecryptionErrors",
		})
		return nil
	}
}

// UsmUserTable is a LoadFunc that registers usmUserTable as a read-only
// snapshot view over the live user table (spec.md §6). The user table is
// immutable after startup (spec.md §3), so a one-time Seed at load time
// is sufficient; there is no write path into this keeper.
func UsmUserTable() LoadFunc {
	return func(oids *oidmap.OidMap, cfg *config.Config, ag *agent.Agent, users *usmuser.Table, compliance *Compliance) error {
		otypes := []models.OType{models.String, models.Integer}
		access := []models.Access{models.ReadOnly, models.ReadOnly}
		defaultRow := models.Row{models.VOctets(nil), models.VInt(0)}
		tk := table.New(oidUsmUser, otypes, access, defaultRow, []int{1}, false)

		names := users.Names()
		rows := make([]models.Row, len(names))
		for i, name := range names {
			rows[i] = models.Row{models.VOctets([]byte(name)), models.VInt(int32(models.RowActive))}
		}
		if err := tk.Seed(rows); err != nil {
			return err
		}

		oids.Register(oidUsmUser, tk)
		compliance.Record("SNMP-USER-BASED-SM-MIB", "usmUserGroup", []string{"usmUserName", "usmUserStatus"})
		return nil
	}
}

// RejectAugments validates that a stub module's table registration does not
// declare an AUGMENTS relationship to another table. AUGMENTS (a row that
// shares its index with, and extends, another table's row) has no
// representation in TableKeeper's index model and is unsupported in this
// revision (spec.md Non-goals: every table owns its own independent index).
func RejectAugments(augmentsTarget string) error {
	if augmentsTarget != "" {
		return augmentsUnsupportedError{target: augmentsTarget}
	}
	return nil
}

type augmentsUnsupportedError struct{ target string }

func (e augmentsUnsupportedError) Error() string {
	return "stub: AUGMENTS relationship to " + e.target + " is not supported in this revision"
}

// upTimeKeeper answers sysUpTime.0 from the agent's own clock rather than
// stored state (spec.md §3: engineTime is derived, not persisted).
type upTimeKeeper struct {
	base models.OID
	ag   *agent.Agent
}

func (u *upTimeKeeper) IsScalar() bool { return true }

func (u *upTimeKeeper) Get(o models.OID) (models.Value, error) {
	if !o.Equal(u.base.Append(0)) {
		return models.Value{}, keeper.New(keeper.NoSuchInstance)
	}
	return models.VTimeTicks(uint32(u.ag.EngineTime()) * 100), nil
}

func (u *upTimeKeeper) GetNext(o models.OID) (models.OID, models.Value, error) {
	return nil, models.Value{}, keeper.New(keeper.OutOfRange)
}

func (u *upTimeKeeper) Access(o models.OID) (models.Access, error) { return models.ReadOnly, nil }
func (u *upTimeKeeper) Set(o models.OID, v models.Value) error     { return keeper.New(keeper.NotWritable) }
func (u *upTimeKeeper) BeginTransaction() error                    { return nil }
func (u *upTimeKeeper) Commit() error                              { return nil }
func (u *upTimeKeeper) Rollback() error                            { return nil }

// counterKeeper is a minimal read-only scalar-shaped Keeper that reads its
// value from a live counter function instead of owning storage, used for
// the usmStats group.
type counterKeeper struct {
	base models.OID
	get  func() int64
}

func (c *counterKeeper) IsScalar() bool { return true }

func (c *counterKeeper) Get(o models.OID) (models.Value, error) {
	if !o.Equal(c.base.Append(0)) {
		return models.Value{}, keeper.New(keeper.NoSuchInstance)
	}
	return models.VCounter32(uint32(c.get())), nil
}

func (c *counterKeeper) GetNext(o models.OID) (models.OID, models.Value, error) {
	return nil, models.Value{}, keeper.New(keeper.OutOfRange)
}

func (c *counterKeeper) Access(o models.OID) (models.Access, error) { return models.ReadOnly, nil }
func (c *counterKeeper) Set(o models.OID, v models.Value) error     { return keeper.New(keeper.NotWritable) }
func (c *counterKeeper) BeginTransaction() error                    { return nil }
func (c *counterKeeper) Commit() error                              { return nil }
func (c *counterKeeper) Rollback() error                            { return nil }
