package notify

// QuietHours is a recurring daily window during which non-exempt
// notifications are deferred. Start and End are local clock times in
// "HH:MM" form; a window may wrap past midnight.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Profile is everything the orchestrator needs to know about a recipient:
// contact points, per-channel opt-outs, and the quiet-hours window.
type Profile struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	WhatsAppNumber string `json:"whatsapp_number,omitempty"`
	PECAddress     string `json:"pec_address,omitempty"`
	// PushEndpoints are device registration tokens; one push attempt
	// fans out to all of them.
	PushEndpoints []string `json:"push_endpoints,omitempty"`
	SocketRoom    string   `json:"socket_room,omitempty"`
	// OptOuts holds channels the user disabled. Absence means enabled.
	OptOuts    map[Channel]bool `json:"opt_outs,omitempty"`
	QuietHours QuietHours       `json:"quiet_hours"`
}

// Allows reports whether the user has not opted out of the channel.
func (p Profile) Allows(ch Channel) bool {
	return !p.OptOuts[ch]
}

// HasContact reports whether the profile carries the contact point the
// channel needs. The in-app feed needs none.
func (p Profile) HasContact(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return p.Email != ""
	case ChannelSMS:
		return p.Phone != ""
	case ChannelWhatsApp:
		return p.WhatsAppNumber != ""
	case ChannelPEC:
		return p.PECAddress != ""
	case ChannelPush:
		return len(p.PushEndpoints) > 0
	case ChannelSocket:
		return p.SocketRoom != ""
	case ChannelInApp:
		return true
	}
	return false
}

func (p Profile) reachable(ch Channel) bool {
	return p.HasContact(ch) && p.Allows(ch)
}
