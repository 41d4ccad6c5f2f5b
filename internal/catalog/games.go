// Package catalog holds the studio's static game list.
package catalog

import (
	"strings"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

var games = []model.Game{
	{
		ID:          "1",
		Name:        "Half-Life: Alyx",
		Description: "Fight the Combine in this immersive VR adventure",
		Platform:    "VR",
		ImageURL:    "https://images.unsplash.com/photo-1657734240343-44afa9402985?crop=entropy&cs=srgb&fm=jpg&ixid=M3w3NDQ2NDN8MHwxfHNlYXJjaHwxfHxWUiUyMGhlYWRzZXR8ZW58MHx8fGJsYWNrX2FuZF93aGl0ZXwxNzUyNzQ5MjQ5fDA&ixlib=rb-4.1.0&q=85",
		Duration:    60,
		MaxPlayers:  1,
	},
	{
		ID:          "2",
		Name:        "Beat Saber",
		Description: "Rhythmic VR experience with lightsabers",
		Platform:    "VR",
		ImageURL:    "https://images.unsplash.com/photo-1657734240326-8f2ab858a2dd?crop=entropy&cs=srgb&fm=jpg&ixid=M3w3NDQ2NDN8MHwxfHNlYXJjaHwyfHxWUiUyMGhlYWRzZXR8ZW58MHx8fGJsYWNrX2FuZF93aGl0ZXwxNzUyNzQ5MjQ5fDA&ixlib=rb-4.1.0&q=85",
		Duration:    30,
		MaxPlayers:  1,
	},
	{
		ID:          "3",
		Name:        "Astro Bot",
		Description: "PlayStation VR platformer adventure",
		Platform:    "PlayStation",
		ImageURL:    "https://images.pexels.com/photos/2007647/pexels-photo-2007647.jpeg",
		Duration:    45,
		MaxPlayers:  1,
	},
	{
		ID:          "4",
		Name:        "Superhot VR",
		Description: "Time moves only when you move",
		Platform:    "VR",
		ImageURL:    "https://images.unsplash.com/photo-1493497029755-f49c8e9a8bbe?crop=entropy&cs=srgb&fm=jpg&ixid=M3w3NTY2NzZ8MHwxfHNlYXJjaHwxfHx2aXJ0dWFsJTIwcmVhbGl0eXxlbnwwfHx8YmxhY2tfYW5kX3doaXRlfDE3NTI3NDkyNTd8MA&ixlib=rb-4.1.0&q=85",
		Duration:    45,
		MaxPlayers:  1,
	},
	{
		ID:          "5",
		Name:        "Horizon Call of the Mountain",
		Description: "PlayStation VR2 exclusive adventure",
		Platform:    "PlayStation",
		ImageURL:    "https://images.unsplash.com/photo-1493496553793-56c1aa2cfcea?crop=entropy&cs=srgb&fm=jpg&ixid=M3w3NTY2NzZ8MHwxfHNlYXJjaHwzfHx2aXJ0dWFsJTIwcmVhbGl0eXxlbnwwfHx8YmxhY2tfYW5kX3doaXRlfDE3NTI3NDkyNTd8MA&ixlib=rb-4.1.0&q=85",
		Duration:    60,
		MaxPlayers:  1,
	},
}

// Games returns the catalog, optionally restricted to one platform.  The
// platform match ignores case and surrounding spaces; an empty platform
// returns everything.  The result is a copy.
func Games(platform string) []model.Game {
	platform = strings.TrimSpace(platform)
	out := make([]model.Game, 0, len(games))
	for _, g := range games {
		if platform == "" || strings.EqualFold(g.Platform, platform) {
			out = append(out, g)
		}
	}
	return out
}

// Find returns the game with id.
func Find(id string) (model.Game, bool) {
	for _, g := range games {
		if g.ID == id {
			return g, true
		}
	}
	return model.Game{}, false
}
