package domain

import "time"

const (
	// ExperiencePerLevel is the per-level step of the leveling threshold.
	// Advancing from level L requires L*ExperiencePerLevel experience.
	ExperiencePerLevel = 100

	// ExperiencePerMushroom is awarded for each mushroom logged in the diary.
	ExperiencePerMushroom = 10
)

// UserStats tracks a user's progression. There is one record per user,
// keyed by the user's id and created lazily on first access.
//
// After every update Experience < Level*ExperiencePerLevel.
type UserStats struct {
	UserID                  int64     `json:"user_id"`
	Experience              int       `json:"experience"`
	Level                   int       `json:"level"`
	TotalMushroomsCollected int       `json:"total_mushrooms_collected"`
	TotalMarkersCreated     int       `json:"total_markers_created"`
	LastUpdated             time.Time `json:"last_updated"`
}

// NewUserStats returns the initial stats record for a user.
func NewUserStats(userID int64, now time.Time) UserStats {
	return UserStats{UserID: userID, Level: 1, LastUpdated: now}
}

// ApplyExperience adds gained experience and collected mushrooms, carrying
// excess experience into levels. The threshold grows with the level, so each
// carry consumes level*100 experience before the level is incremented.
func ApplyExperience(s UserStats, gainedExp, mushroomsGained int, now time.Time) UserStats {
	if s.Level < 1 {
		s.Level = 1
	}
	s.Experience += gainedExp
	for s.Experience >= s.Level*ExperiencePerLevel {
		s.Experience -= s.Level * ExperiencePerLevel
		s.Level++
	}
	s.TotalMushroomsCollected += mushroomsGained
	s.LastUpdated = now
	return s
}

// IncrementMarkersCreated counts one more created marker. Leveling is unaffected.
func IncrementMarkersCreated(s UserStats, now time.Time) UserStats {
	s.TotalMarkersCreated++
	s.LastUpdated = now
	return s
}

// ExperienceForNextLevel is the experience needed to advance from level.
func ExperienceForNextLevel(level int) int {
	return level * ExperiencePerLevel
}

// LevelTitle is a display rank derived from the level.
type LevelTitle struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

var levelTitles = []struct {
	minLevel int
	title    LevelTitle
}{
	{20, LevelTitle{Key: "professional", Title: "Professional forager"}},
	{15, LevelTitle{Key: "experienced", Title: "Experienced forager"}},
	{10, LevelTitle{Key: "advanced", Title: "Advanced forager"}},
	{5, LevelTitle{Key: "amateur", Title: "Amateur"}},
}

// TitleForLevel maps a level onto its display title.
func TitleForLevel(level int) LevelTitle {
	for _, t := range levelTitles {
		if level >= t.minLevel {
			return t.title
		}
	}
	return LevelTitle{Key: "novice", Title: "Novice"}
}
