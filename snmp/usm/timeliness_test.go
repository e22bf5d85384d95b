package usm_test

import (
	"testing"

	"github.com/vpbank/snmpagent/snmp/usm"
)

func TestTimelinessOK(t *testing.T) {
	cases := []struct {
		name                         string
		localBoots, localTime        int32
		msgBoots, msgTime            int32
		want                         bool
	}{
		{"exact match", 1, 1000, 1, 1000, true},
		{"within window", 1, 1000, 1, 1000 + usm.TimeWindow, true},
		{"outside window", 1, 1000, 1, 1000 + usm.TimeWindow + 1, false},
		{"negative delta within window", 1, 1000, 1, 1000 - usm.TimeWindow, true},
		{"msg boots behind local is stale", 2, 1000, 1, 1000, false},
		{"msg boots ahead of local is also rejected", 1, 1000, 2, 1000, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := usm.TimelinessOK(c.localBoots, c.localTime, c.msgBoots, c.msgTime)
			if got != c.want {
				t.Errorf("TimelinessOK(%d,%d,%d,%d) = %v, want %v", c.localBoots, c.localTime, c.msgBoots, c.msgTime, got, c.want)
			}
		})
	}
}
