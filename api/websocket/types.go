package websocket

type ConnectParams struct {
	RoomID string `form:"room"`                   // explicit room id, takes precedence over path
	Path   string `form:"path"`                   // page path the room is derived from
	Token  string `form:"token"`                  // identity token that pins name and color
	Name   string `form:"name" binding:"max=64"` // display name for clients without a token
}
