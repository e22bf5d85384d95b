package usm

// TimeWindow is the RFC 3414 §3.2 step 7 freshness bound, in seconds.
const TimeWindow = 150

// TimelinessOK reports whether a received (msgEngineBoots, msgEngineTime)
// pair is acceptable against the agent's own authoritative counters
// (spec.md §4.4.3, RFC 3414 §3.2(7b)). A message is rejected if its boots
// counter doesn't exactly match the agent's own — a lower value is stale,
// a higher one means the agent itself has lost state and can't vouch for
// the window either way — or if the boots match but the time is more than
// TimeWindow seconds away from the local clock.
func TimelinessOK(localBoots, localTime, msgBoots, msgTime int32) bool {
	if msgBoots != localBoots {
		return false
	}
	delta := localTime - msgTime
	if delta < 0 {
		delta = -delta
	}
	return delta <= TimeWindow
}
