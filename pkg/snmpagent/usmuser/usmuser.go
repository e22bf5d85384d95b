// Package usmuser owns the USM user table and the permission/group table,
// and loads both from the line-oriented text files spec.md §6 describes
// (users file, groups file).
package usmuser

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/vpbank/snmpagent/models"
)

// Table holds every configured user, immutable after startup (spec.md §3
// "the engine ID and users are created at startup and immutable
// thereafter").
type Table struct {
	byName map[string]*models.User
}

// NewTable returns an empty user table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*models.User)}
}

// Add registers a user, replacing any existing entry of the same name.
func (t *Table) Add(u *models.User) {
	t.byName[string(u.Name)] = u
}

// Lookup finds a user by name.
func (t *Table) Lookup(name []byte) (*models.User, bool) {
	u, ok := t.byName[string(name)]
	return u, ok
}

// Names returns every configured user name, for read-only MIB views over
// the table (e.g. usmUserTable).
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.byName))
	for name := range t.byName {
		out = append(out, name)
	}
	return out
}

// userLineRE matches one users-file line: "<name> sha1 <hex authkey> aes <hex privkey>".
var userLineRE = regexp.MustCompile(`^(\S+) sha1 ([0-9a-fA-F]+) aes ([0-9a-fA-F]+)$`)

// groupLineRE matches one groups-file line: "<t|f read> <t|f write> <1-3 level> <group name>".
var groupLineRE = regexp.MustCompile(`^([tf]) ([tf]) ([1-3]) (\S+)$`)

// LoadGroups parses the groups file into a name-keyed permission map.
func LoadGroups(r io.Reader) (map[string]models.Permission, error) {
	groups := make(map[string]models.Permission)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		m := groupLineRE.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("usmuser: groups file line %d: malformed %q", lineNo, line)
		}
		var level int
		fmt.Sscanf(m[3], "%d", &level)
		groups[m[4]] = models.Permission{
			Read:             m[1] == "t",
			Write:            m[2] == "t",
			MinSecurityLevel: level,
			GroupName:        m[4],
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("usmuser: reading groups file: %w", err)
	}
	return groups, nil
}

// LoadUsers parses the users file, resolving each user's group permission
// from groups. The users file carries no group field: a user's group name
// is looked up by user name in the caller-supplied userGroup map.
func LoadUsers(r io.Reader, userGroup map[string]string, groups map[string]models.Permission) (*Table, error) {
	t := NewTable()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		m := userLineRE.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("usmuser: users file line %d: malformed %q", lineNo, line)
		}
		name := m[1]
		authHex, privHex := m[2], m[3]

		authKeyBytes, err := hex.DecodeString(authHex)
		if err != nil {
			return nil, fmt.Errorf("usmuser: users file line %d: auth key not hex: %w", lineNo, err)
		}
		if len(authKeyBytes) != 20 {
			return nil, fmt.Errorf("usmuser: users file line %d: auth key must be 20 bytes, got %d", lineNo, len(authKeyBytes))
		}
		var authKey [20]byte
		copy(authKey[:], authKeyBytes)

		privKey, err := hex.DecodeString(privHex)
		if err != nil {
			return nil, fmt.Errorf("usmuser: users file line %d: priv key not hex: %w", lineNo, err)
		}
		if len(privKey) < 16 {
			return nil, fmt.Errorf("usmuser: users file line %d: priv key must be >= 16 bytes, got %d", lineNo, len(privKey))
		}

		groupName := userGroup[name]
		perm, ok := groups[groupName]
		if !ok {
			return nil, fmt.Errorf("usmuser: users file line %d: user %q has no matching group %q", lineNo, name, groupName)
		}

		t.Add(models.NewUser([]byte(name), authKey, privKey, perm))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("usmuser: reading users file: %w", err)
	}
	return t, nil
}

// LoadUsersFile is a convenience wrapper opening path and calling LoadUsers.
func LoadUsersFile(path string, userGroup map[string]string, groups map[string]models.Permission) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("usmuser: opening users file: %w", err)
	}
	defer f.Close()
	return LoadUsers(f, userGroup, groups)
}

// LoadGroupsFile is a convenience wrapper opening path and calling LoadGroups.
func LoadGroupsFile(path string) (map[string]models.Permission, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("usmuser: opening groups file: %w", err)
	}
	defer f.Close()
	return LoadGroups(f)
}
