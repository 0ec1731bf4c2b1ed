package bridge

// Inbound message kinds on a producer connection.
const (
	eventStart = "start"
	eventMedia = "media"
	eventStop  = "stop"
)

// Track labels carried by media frames.
const (
	TrackInbound  = "inbound"
	TrackOutbound = "outbound"
)

// inboundMessage is the envelope of the text-framed media-stream protocol.
type inboundMessage struct {
	Event string        `json:"event"`
	Start *startPayload `json:"start,omitempty"`
	Media *mediaPayload `json:"media,omitempty"`
}

type startPayload struct {
	StreamSID        string            `json:"streamSid,omitempty"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

type mediaPayload struct {
	Track string `json:"track"`
	// Payload is base64-encoded 8-bit mu-law audio.
	Payload   string `json:"payload"`
	Timestamp string `json:"timestamp,omitempty"`
}

// TrackPolicy selects which tracks a deployment transcribes.
type TrackPolicy string

const (
	PolicyBoth     TrackPolicy = "both"
	PolicyInbound  TrackPolicy = "inbound"
	PolicyOutbound TrackPolicy = "outbound"
)

// ParseTrackPolicy maps a config string onto a policy, defaulting to both.
func ParseTrackPolicy(s string) TrackPolicy {
	switch TrackPolicy(s) {
	case PolicyInbound:
		return PolicyInbound
	case PolicyOutbound:
		return PolicyOutbound
	default:
		return PolicyBoth
	}
}

// Allows reports whether media for track should be transcribed.
func (p TrackPolicy) Allows(track string) bool {
	switch p {
	case PolicyInbound:
		return track == TrackInbound
	case PolicyOutbound:
		return track == TrackOutbound
	default:
		return true
	}
}

// channelFor maps a track label to the channel label reported on events:
// the inbound track carries the caller, the outbound track the agent.
func channelFor(track string) string {
	switch track {
	case TrackInbound:
		return "caller"
	case TrackOutbound:
		return "agent"
	default:
		return "unknown"
	}
}
