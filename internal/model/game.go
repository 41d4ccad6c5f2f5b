package model

// Game is an entry of the studio's static game catalog.  Platform is either
// "VR" or "PlayStation"; Duration is the typical session length in minutes.
type Game struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Platform    string `json:"platform"`
	ImageURL    string `json:"image_url"`
	Duration    int    `json:"duration"`
	MaxPlayers  int    `json:"max_players"`
}
