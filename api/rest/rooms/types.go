package rooms

import "codeberg.org/portfolio/presence/internal/roomstore"

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// pagination parameters for the room listing
type ListParams struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// pagination metadata for the room listing
type Meta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

type ListRoomsResponse struct {
	Rooms      []roomstore.Summary `json:"rooms"`
	Pagination Meta                `json:"pagination"`
}

type RoomPresenceResponse struct {
	RoomID       string                  `json:"room_id"`
	Count        int                     `json:"count"`
	Label        string                  `json:"label"`
	Participants []roomstore.Participant `json:"participants"`
}

type ResolveRoomResponse struct {
	Path   string `json:"path"`
	RoomID string `json:"room_id"`
}

// applies defaults and bounds
func (p ListParams) normalize() ListParams {
	if p.Limit <= 0 {
		p.Limit = defaultListLimit
	}

	if p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}

	if p.Offset < 0 {
		p.Offset = 0
	}

	return p
}

func newMeta(params ListParams, total int) Meta {
	return Meta{
		Total:   total,
		Limit:   params.Limit,
		Offset:  params.Offset,
		HasMore: params.Offset+params.Limit < total,
	}
}
