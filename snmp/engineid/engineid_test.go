package engineid_test

import (
	"testing"

	"github.com/vpbank/snmpagent/snmp/engineid"
)

func TestNewStatic_ClearsHighBit(t *testing.T) {
	payload := make([]byte, 11)
	for i := range payload {
		payload[i] = 0xFF
	}
	id, err := engineid.NewStatic(payload)
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	if len(id) != 12 {
		t.Fatalf("got length %d, want 12", len(id))
	}
	if id[0]&0x80 != 0 {
		t.Error("static scheme must have the high bit clear on the leading byte")
	}
	if err := engineid.Validate(id); err != nil {
		t.Errorf("Validate(static): %v", err)
	}
}

func TestNewStatic_RejectsWrongPayloadLength(t *testing.T) {
	if _, err := engineid.NewStatic(make([]byte, 5)); err == nil {
		t.Fatal("NewStatic must reject a payload that isn't exactly 11 bytes")
	}
}

func TestNewDynamic_IPv4(t *testing.T) {
	id, err := engineid.NewDynamic(12345, engineid.SchemeIPv4, []byte{192, 0, 2, 1})
	if err != nil {
		t.Fatalf("NewDynamic: %v", err)
	}
	if len(id) != 9 {
		t.Fatalf("got length %d, want 9", len(id))
	}
	if id[0]&0x80 == 0 {
		t.Error("dynamic scheme must have the high bit set on the leading byte")
	}
	if err := engineid.Validate(id); err != nil {
		t.Errorf("Validate(IPv4): %v", err)
	}
}

func TestNewDynamic_RejectsWrongPayloadLength(t *testing.T) {
	cases := []struct {
		scheme  engineid.Scheme
		payload []byte
	}{
		{engineid.SchemeIPv4, make([]byte, 3)},
		{engineid.SchemeIPv6, make([]byte, 15)},
		{engineid.SchemeMAC, make([]byte, 5)},
		{engineid.SchemeText, nil},
	}
	for _, c := range cases {
		if _, err := engineid.NewDynamic(1, c.scheme, c.payload); err == nil {
			t.Errorf("scheme %d: expected an error for payload length %d", c.scheme, len(c.payload))
		}
	}
}

func TestValidate_RejectsTooShortOrTooLong(t *testing.T) {
	if err := engineid.Validate(make([]byte, 4)); err == nil {
		t.Error("Validate must reject an engine ID shorter than 5 bytes")
	}
	if err := engineid.Validate(make([]byte, 33)); err == nil {
		t.Error("Validate must reject an engine ID longer than 32 bytes")
	}
}

func TestParseConfigValue_Static(t *testing.T) {
	id, err := engineid.ParseConfigValue([]string{"0", "static", "00112233445566778899aa"})
	if err != nil {
		t.Fatalf("ParseConfigValue: %v", err)
	}
	if len(id) != 12 {
		t.Fatalf("got length %d, want 12", len(id))
	}
}

func TestParseConfigValue_MAC(t *testing.T) {
	id, err := engineid.ParseConfigValue([]string{"9999", "3", "aa:bb:cc:dd:ee:ff"})
	if err != nil {
		t.Fatalf("ParseConfigValue: %v", err)
	}
	if err := engineid.Validate(id); err != nil {
		t.Errorf("Validate(MAC): %v", err)
	}
}

func TestParseConfigValue_UnknownScheme(t *testing.T) {
	if _, err := engineid.ParseConfigValue([]string{"0", "bogus", "x"}); err == nil {
		t.Fatal("expected an error for an unrecognized scheme selector")
	}
}
