// Package config loads the agent's whitespace-separated key-value
// configuration file and the boot-counter file (spec.md §6).
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vpbank/snmpagent/snmp/engineid"
)

// Config is the parsed agent configuration file.
type Config struct {
	EngineID    []byte
	FQDN        string
	Listen      string
	StoragePath string
	Contact     string
	TrapSink    string
}

var requiredKeys = []string{"EngineID", "FQDN", "Listen", "StoragePath"}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads whitespace-separated "key value..." lines from r.
func Parse(r io.Reader) (*Config, error) {
	raw := make(map[string][]string)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("config: line %d: expected \"key value...\", got %q", lineNo, line)
		}
		raw[fields[0]] = fields[1:]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: reading file: %w", err)
	}

	for _, k := range requiredKeys {
		if _, ok := raw[k]; !ok {
			return nil, fmt.Errorf("config: missing required key %q", k)
		}
	}

	eid, err := engineid.ParseConfigValue(raw["EngineID"])
	if err != nil {
		return nil, fmt.Errorf("config: EngineID: %w", err)
	}

	cfg := &Config{
		EngineID:    eid,
		FQDN:        strings.Join(raw["FQDN"], " "),
		Listen:      strings.Join(raw["Listen"], " "),
		StoragePath: strings.Join(raw["StoragePath"], " "),
	}
	if v, ok := raw["Contact"]; ok {
		cfg.Contact = strings.Join(v, " ")
	}
	if v, ok := raw["TrapSink"]; ok {
		cfg.TrapSink = strings.Join(v, " ")
	}
	return cfg, nil
}

// LoadBootCounter reads the decimal boot counter at path, increments it,
// and writes it back atomically before returning the incremented value
// (spec.md §6 "Boot counter file", §3 "incremented exactly once per
// process start, atomically before any packet is served"). A missing file
// is treated as an initial counter of zero.
func LoadBootCounter(path string) (int32, error) {
	var current int64
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		s := strings.TrimSpace(string(raw))
		current, err = strconv.ParseInt(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("config: boot counter file %s: not an integer: %w", path, err)
		}
	case os.IsNotExist(err):
		current = 0
	default:
		return 0, fmt.Errorf("config: reading boot counter file %s: %w", path, err)
	}

	next := current + 1
	if err := writeAtomic(path, []byte(strconv.FormatInt(next, 10))); err != nil {
		return 0, fmt.Errorf("config: writing boot counter file %s: %w", path, err)
	}
	return int32(next), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
