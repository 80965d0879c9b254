package health

// Response represents the health check response
type Response struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Rooms   int    `json:"rooms"`
}

type PingResponse struct {
	Message string `json:"message"`
}

// reports live room occupancy (implemented by the websocket hub)
type RoomCounter interface {
	GetRoomCount() int
}
