package models

// Contact is a saved room: a display name bound to a room number.
type Contact struct {
	Name      string `json:"name"`
	Room      int    `json:"room"`
	CreatedTS int64  `json:"created_ts,omitempty"`
}

// RoomStatus summarizes one room for read-only consumers.
type RoomStatus struct {
	Name     string   `json:"name"`
	Room     int      `json:"room"`
	Key      int      `json:"key"`
	Active   bool     `json:"active"`
	Messages int      `json:"messages"`
	Last     *Message `json:"last,omitempty"`
}

// Status is a point-in-time view of a running chat process.
type Status struct {
	Instance  string       `json:"instance"`
	User      string       `json:"user"`
	StartedTS int64        `json:"started_ts"`
	UpdatedTS int64        `json:"updated_ts"`
	Rooms     []RoomStatus `json:"rooms"`
}
