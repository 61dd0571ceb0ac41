// Package color assigns avatar colors to users.
package color

import "hash/fnv"

// palette holds the avatar colors clients render against both light and
// dark themes. Order matters: changing it reshuffles existing avatars.
var palette = []string{
	"#E06C75", // red
	"#E5946A", // orange
	"#E5C07B", // amber
	"#98C379", // green
	"#56B6A2", // teal
	"#61AFEF", // blue
	"#7E8CE0", // indigo
	"#C678DD", // purple
	"#D76C9E", // pink
	"#8A97A8", // slate
}

// ForUser picks a color for the user, stable across sessions and servers.
func ForUser(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return palette[h.Sum32()%uint32(len(palette))]
}
