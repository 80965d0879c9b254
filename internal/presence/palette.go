package presence

// cursor palette; a session's color index selects an entry
var Palette = []string{
	"#E57373",
	"#9575CD",
	"#4FC3F7",
	"#81C784",
	"#FFF176",
	"#FF8A65",
	"#F06292",
	"#7986CB",
}

// returns the palette color for an index, wrapping out-of-range values
func ColorFor(index int) string {
	if index < 0 {
		index = -index
	}

	return Palette[index%len(Palette)]
}
