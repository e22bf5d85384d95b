package scalar_test

import (
	"path/filepath"
	"testing"

	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/pkg/snmpagent/scalar"
)

func TestPersistent_ReloadAfterCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sysName")

	p, err := scalar.NewPersistent(base(), models.String, models.ReadWrite, models.VOctets([]byte("initial")), path, nil)
	if err != nil {
		t.Fatalf("NewPersistent: %v", err)
	}
	inst := base().Append(0)

	if err := p.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	if err := p.Set(inst, models.VOctets([]byte("saved"))); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := p.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	reloaded, err := scalar.NewPersistent(base(), models.String, models.ReadWrite, models.VOctets([]byte("initial")), path, nil)
	if err != nil {
		t.Fatalf("NewPersistent (reload): %v", err)
	}
	v, err := reloaded.Get(inst)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v.Bytes) != "saved" {
		t.Errorf("got %q, want %q", v.Bytes, "saved")
	}
}

func TestPersistent_MissingFileFallsBackToInitial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never-written")

	p, err := scalar.NewPersistent(base(), models.String, models.ReadWrite, models.VOctets([]byte("initial")), path, nil)
	if err != nil {
		t.Fatalf("NewPersistent: %v", err)
	}
	v, err := p.Get(base().Append(0))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v.Bytes) != "initial" {
		t.Errorf("got %q, want %q", v.Bytes, "initial")
	}
}
