package catalog

import "testing"

func TestGames(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		want     int
	}{
		{"all", "", 5},
		{"vr", "VR", 3},
		{"playstation lower case", "playstation", 2},
		{"padded", "  PlayStation ", 2},
		{"unknown", "Xbox", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Games(tt.platform)
			if len(got) != tt.want {
				t.Fatalf("Games(%q) returned %d games, want %d", tt.platform, len(got), tt.want)
			}
			if got == nil {
				t.Fatal("Games returned nil slice")
			}
		})
	}
}

func TestGamesReturnsCopy(t *testing.T) {
	got := Games("")
	got[0].Name = "changed"
	if g, _ := Find("1"); g.Name != "Half-Life: Alyx" {
		t.Fatalf("catalog mutated through returned slice: %q", g.Name)
	}
}

func TestFind(t *testing.T) {
	if g, ok := Find("2"); !ok || g.Name != "Beat Saber" || g.Duration != 30 {
		t.Fatalf("Find(2) = %+v, %v", g, ok)
	}
	if _, ok := Find("42"); ok {
		t.Fatal("Find(42) reported a game")
	}
}
