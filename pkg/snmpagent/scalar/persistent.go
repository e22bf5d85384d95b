package scalar

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/snmp/ber"
)

// Persistent wraps a Keeper with a filesystem-backed copy of its value,
// BER-encoded as an ObjectSyntax and written under StoragePath at each
// commit (spec.md §6 "Persistent scalar files"). Write failures are logged,
// not propagated — commit still succeeds, an explicit availability-over-
// durability choice (spec.md §7).
type Persistent struct {
	*Keeper
	path string
	log  *slog.Logger
}

// NewPersistent constructs a persistent scalar at path. If the file exists
// it is loaded as the initial value in place of initial.
func NewPersistent(base models.OID, otype models.OType, acc models.Access, initial models.Value, path string, log *slog.Logger) (*Persistent, error) {
	if log == nil {
		log = slog.Default()
	}
	p := &Persistent{Keeper: New(base, otype, acc, initial, log), path: path, log: log}
	if err := p.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("scalar: loading %s: %w", path, err)
	}
	return p, nil
}

// Load reads and decodes the persisted value from disk, replacing the
// in-memory value. Returns an error satisfying os.IsNotExist if the file
// has never been written.
func (p *Persistent) Load() error {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}
	tag, content, _, _, err := ber.DecodeTLV(raw, 0)
	if err != nil {
		return fmt.Errorf("scalar: decoding persisted value: %w", err)
	}
	v, err := ber.DecodeValue(tag, content)
	if err != nil {
		return fmt.Errorf("scalar: decoding persisted value: %w", err)
	}
	p.Keeper.value = v
	return nil
}

// Commit copies pending into value (as Keeper.Commit does) and additionally
// persists the new value to disk via a write-to-temp-then-rename sequence,
// so a crash mid-write never corrupts the previously committed file.
func (p *Persistent) Commit() error {
	if err := p.Keeper.Commit(); err != nil {
		return err
	}
	encoded, err := ber.EncodeValue(p.Keeper.value)
	if err != nil {
		p.log.Error("scalar: encoding value for persistence", "path", p.path, "err", err)
		return nil
	}
	if err := writeAtomic(p.path, encoded); err != nil {
		p.log.Error("scalar: persisting value", "path", p.path, "err", err)
	}
	return nil
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
