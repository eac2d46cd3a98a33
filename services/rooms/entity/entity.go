package entity

// RoomRecord is one provisioned room. Written once, keyed by label, never
// mutated after creation.
type RoomRecord struct {
	Label   string `json:"label"`
	RoomID  string `json:"roomId"`
	RoomURL string `json:"roomUrl"`
}
