package models

// MSubscribeCommand is the message websocket clients send to scope their feed.
type MSubscribeCommand struct {
	Command    string   `json:"command"` // only "subscribe" is recognized
	ClientType string   `json:"client_type"`
	Devices    []string `json:"devices"` // empty means all devices
}
