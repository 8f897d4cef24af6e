package notify

// Channel tiers used by the selection policy. Order within a tier is the
// dispatch order recorded in attempts.
var (
	// fastChannels reach the user within seconds.
	fastChannels = []Channel{ChannelPush, ChannelSocket, ChannelWhatsApp, ChannelSMS}
	// canonicalChannels is every external channel, broadest first.
	canonicalChannels = []Channel{ChannelPush, ChannelSocket, ChannelWhatsApp, ChannelSMS, ChannelEmail, ChannelPEC}
	// preferredRanking orders the single "most preferred" channel pick.
	preferredRanking = []Channel{ChannelPush, ChannelWhatsApp, ChannelEmail}
)

// SelectChannels resolves the set of channels to attempt for a request.
// An explicit override on the request wins verbatim (duplicates removed).
// Otherwise breadth scales with priority: critical blasts every reachable
// channel, low touches only the in-app feed plus email.
//
// A channel is reachable when the profile has its contact point and the
// user has not opted out. The in-app feed is always reachable.
func SelectChannels(priority Priority, rcpt Profile, override []Channel) []Channel {
	if len(override) > 0 {
		return dedupe(override)
	}

	var out []Channel
	switch priority {
	case PriorityCritical:
		for _, ch := range canonicalChannels {
			if rcpt.reachable(ch) {
				out = append(out, ch)
			}
		}
		out = append(out, ChannelInApp)
	case PriorityUrgent:
		for _, ch := range fastChannels {
			if rcpt.reachable(ch) {
				out = append(out, ch)
			}
		}
		out = append(out, ChannelInApp)
	case PriorityHigh:
		if ch, ok := mostPreferred(rcpt); ok {
			out = append(out, ch)
		}
		if rcpt.reachable(ChannelEmail) {
			out = append(out, ChannelEmail)
		}
		out = append(out, ChannelInApp)
	case PriorityMedium:
		if ch, ok := mostPreferred(rcpt); ok {
			out = append(out, ch)
		}
		out = append(out, ChannelInApp)
	default: // PriorityLow
		out = append(out, ChannelInApp)
		if rcpt.reachable(ChannelEmail) {
			out = append(out, ChannelEmail)
		}
	}
	return dedupe(out)
}

// mostPreferred returns the highest-ranked reachable channel.
func mostPreferred(rcpt Profile) (Channel, bool) {
	for _, ch := range preferredRanking {
		if rcpt.reachable(ch) {
			return ch, true
		}
	}
	return "", false
}

func dedupe(in []Channel) []Channel {
	seen := make(map[Channel]struct{}, len(in))
	out := make([]Channel, 0, len(in))
	for _, ch := range in {
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}
