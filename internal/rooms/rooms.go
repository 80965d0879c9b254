package rooms

import (
	"regexp"
	"strings"
)

// prefix shared by every room identifier
const Prefix = "portfolio-room-"

// room used for the site root
const HomeRoom = Prefix + "home"

var (
	disallowed = regexp.MustCompile(`[^A-Za-z0-9\-_]`)
	validID    = regexp.MustCompile(`^` + Prefix + `[A-Za-z0-9\-_]{1,200}$`)
)

// derives the room identifier for a page path. paths that only differ in
// characters outside [A-Za-z0-9-_] map to the same room.
func RoomID(path string) string {
	return Prefix + Normalize(path)
}

// turns a page path into an identifier-safe string
func Normalize(path string) string {
	// query strings and fragments never select a different room
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "home"
	}

	return disallowed.ReplaceAllString(path, "-")
}

// checks that an identifier has the shape RoomID produces
func Valid(id string) bool {
	return validID.MatchString(id)
}
