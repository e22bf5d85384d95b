// Command snmpagent is the SNMPv3 agent binary.
//
// It loads the engine's configuration, user/group tables, and boot
// counter from disk, links in the built-in MIB stub modules, binds the
// listening UDP socket, and serves GetRequest/GetNextRequest/GetBulkRequest/
// SetRequest traffic until interrupted (SIGINT / SIGTERM).
//
// Usage:
//
//	snmpagent [flags]
package main

import (
	"context"
	"fmt"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/agent"
	"github.com/vpbank/snmpagent/pkg/snmpagent/audit"
	"github.com/vpbank/snmpagent/pkg/snmpagent/config"
	"github.com/vpbank/snmpagent/pkg/snmpagent/notifier"
	"github.com/vpbank/snmpagent/pkg/snmpagent/oidmap"
	"github.com/vpbank/snmpagent/pkg/snmpagent/stub"
	"github.com/vpbank/snmpagent/pkg/snmpagent/usmuser"
	"github.com/vpbank/snmpagent/transport/file"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "snmpagent: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		logLevel   string
		logFmt     string
		configPath string
		usersPath  string
		groupsPath string
		bootPath   string
		compliancePath string
		sysDescr   string
		sysContact string
		sysName    string
		sysLocation string
		sysServices int
		userGroupsFlag string
	)

	flag.StringVar(&logLevel, "log.level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&logFmt, "log.fmt", "json", "Log format: json, text")
	flag.StringVar(&configPath, "config", "/etc/snmpagent/agent.conf", "Path to the agent configuration file")
	flag.StringVar(&usersPath, "users", "/etc/snmpagent/users.conf", "Path to the USM users file")
	flag.StringVar(&groupsPath, "groups", "/etc/snmpagent/groups.conf", "Path to the USM groups file")
	flag.StringVar(&bootPath, "boot.counter", "/var/lib/snmpagent/boot_counter", "Path to the boot counter file")
	flag.StringVar(&compliancePath, "compliance.out", "", "If set, write the linked-module compliance manifest (YAML) to this path")
	var auditPath string
	flag.StringVar(&auditPath, "audit.out", "", "If set, append a JSON-lines audit trail of Set/trap/discovery events to this path")
	var auditMaxBytes int64
	flag.Int64Var(&auditMaxBytes, "audit.rotate.max-bytes", 0, "Rotate the audit trail file after it exceeds this many bytes (0 disables rotation)")
	var auditMaxBackups int
	flag.IntVar(&auditMaxBackups, "audit.rotate.max-backups", 5, "Number of rotated audit trail files to keep")
	flag.StringVar(&sysDescr, "system.descr", "snmpagent", "sysDescr value")
	flag.StringVar(&sysContact, "system.contact", "", "sysContact initial value")
	flag.StringVar(&sysName, "system.name", "", "sysName initial value")
	flag.StringVar(&sysLocation, "system.location", "", "sysLocation initial value")
	flag.IntVar(&sysServices, "system.services", 72, "sysServices value")
	flag.StringVar(&userGroupsFlag, "user.groups", "", "Comma-separated user=group pairs assigning each USM user to a group (required if the users file has users)")

	flag.Parse()

	logger, err := buildLogger(logLevel, logFmt)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	bootCount, err := config.LoadBootCounter(bootPath)
	if err != nil {
		return fmt.Errorf("loading boot counter: %w", err)
	}

	groups, err := usmuser.LoadGroupsFile(groupsPath)
	if err != nil {
		return fmt.Errorf("loading groups file: %w", err)
	}
	userGroups, err := parseUserGroups(userGroupsFlag)
	if err != nil {
		return fmt.Errorf("parsing -user.groups: %w", err)
	}
	users, err := usmuser.LoadUsersFile(usersPath, userGroups, groups)
	if err != nil {
		return fmt.Errorf("loading users file: %w", err)
	}

	ag := agent.New(cfg.EngineID, bootCount, users, oidmap.New(), logger)

	if auditPath != "" {
		rf, err := file.NewRotatingFile(file.RotateConfig{
			FilePath:   auditPath,
			MaxBytes:   auditMaxBytes,
			MaxBackups: auditMaxBackups,
		}, logger)
		if err != nil {
			return fmt.Errorf("opening audit trail %s: %w", auditPath, err)
		}
		defer rf.Close()
		ag.SetAudit(audit.New(file.New(file.Config{Writer: rf}, logger)))
	}

	registry := stub.NewRegistry()
	registry.Add(stub.SystemGroup(sysDescr, sysContact, sysName, sysLocation, int32(sysServices)))
	registry.Add(stub.UsmStatsGroup())
	registry.Add(stub.UsmUserTable())

	compliance, err := registry.LoadAll(ag.Oids, cfg, ag, users)
	if err != nil {
		return fmt.Errorf("loading stub modules: %w", err)
	}
	ag.Oids.Freeze()

	if compliancePath != "" {
		if err := compliance.WriteYAML(compliancePath); err != nil {
			return fmt.Errorf("writing compliance manifest: %w", err)
		}
	}

	addr, err := net.ResolveUDPAddr("udp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("resolving listen address %s: %w", cfg.Listen, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", cfg.Listen, err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var trapNotifier *notifier.Notifier
	if cfg.TrapSink != "" {
		trapUser, ok := pickTrapUser(users, userGroups)
		if !ok {
			return fmt.Errorf("TrapSink configured but no USM user available to sign traps")
		}
		trapNotifier, err = notifier.New(ag, trapUser, cfg.TrapSink, logger)
		if err != nil {
			return fmt.Errorf("starting notifier: %w", err)
		}
		trapNotifier.SetAudit(ag.Audit)
		trapNotifier.Start(ctx)
	}

	logger.Info("snmpagent: serving", "listen", cfg.Listen, "engineBoots", ag.EngineBoots())

	serveErr := make(chan error, 1)
	go func() { serveErr <- ag.Serve(ctx, conn) }()

	select {
	case <-ctx.Done():
		logger.Info("snmpagent: received shutdown signal")
	case err := <-serveErr:
		if err != nil {
			logger.Error("snmpagent: serve loop exited", "err", err)
		}
	}

	if trapNotifier != nil {
		if err := trapNotifier.Stop(); err != nil {
			logger.Warn("snmpagent: stopping notifier", "err", err)
		}
	}
	return nil
}

func buildLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (expected json|text)", format)
	}
	return slog.New(handler), nil
}

// parseUserGroups parses "-user.groups" as a comma-separated list of
// name=group pairs. The users file format (spec.md §6) carries no group
// field, so the group assignment is supplied operationally at the
// command line instead.
func parseUserGroups(raw string) (map[string]string, error) {
	out := make(map[string]string)
	if raw == "" {
		return out, nil
	}
	for _, pair := range splitNonEmpty(raw, ',') {
		name, group, ok := cutOnce(pair, '=')
		if !ok {
			return nil, fmt.Errorf("malformed pair %q, expected name=group", pair)
		}
		out[name] = group
	}
	return out, nil
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func cutOnce(s string, sep byte) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// pickTrapUser picks an arbitrary user named in userGroups that is present
// in users to sign outgoing traps with; ok is false if there is none.
func pickTrapUser(users *usmuser.Table, userGroups map[string]string) (*models.User, bool) {
	for name := range userGroups {
		if u, ok := users.Lookup([]byte(name)); ok {
			return u, true
		}
	}
	return nil, false
}
