package models

// Message is one chat line as shown to the user. It lives only in memory and
// is never written back to a segment.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	// IsMine is true when Sender equals the local participant's name.
	IsMine bool `json:"is_mine"`
	// TS is when this process observed or sent the message (ns).
	TS int64 `json:"ts"`
}
