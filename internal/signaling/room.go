package signaling

// maxRoomSize is the hard cap on participants per room. A call has
// exactly two ends; a third join attempt is rejected, never queued.
const maxRoomSize = 2

// Room is a single call room. Members preserves join order:
// Members[0] is the first joiner and therefore the negotiation
// initiator. Only the hub goroutine touches a Room.
type Room struct {
	ID      string
	Members []*Client
}

// other returns the member that is not c, or nil if c is alone.
func (r *Room) other(c *Client) *Client {
	for _, m := range r.Members {
		if m != c {
			return m
		}
	}
	return nil
}

// remove drops c from the member list and reports whether it was a
// member.
func (r *Room) remove(c *Client) bool {
	for i, m := range r.Members {
		if m == c {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return true
		}
	}
	return false
}
