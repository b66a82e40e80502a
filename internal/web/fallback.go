package web

import "github.com/desertthunder/moodring/internal/models"

func fallbackCollections() []models.Collection {
	return []models.Collection{
		{
			ID: 1, Name: "Happy Vibes", Mood: models.MoodHappy, SongCount: 25, LastUpdated: "2 days ago",
			Color: models.MoodHappy.Color(),
			Songs: []models.Song{
				{Title: "Blinding Lights", Artist: "The Weeknd"},
				{Title: "Levitating", Artist: "Dua Lipa"},
				{Title: "Good as Hell", Artist: "Lizzo"},
			},
		},
		{
			ID: 2, Name: "Chill Nights", Mood: models.MoodCalm, SongCount: 18, LastUpdated: "1 week ago",
			Color: models.MoodCalm.Color(),
			Songs: []models.Song{
				{Title: "Watermelon Sugar", Artist: "Harry Styles"},
				{Title: "Sunflower", Artist: "Post Malone"},
				{Title: "Circles", Artist: "Post Malone"},
			},
		},
		{
			ID: 3, Name: "Workout Energy", Mood: models.MoodEnergized, SongCount: 32, LastUpdated: "3 days ago",
			Color: models.MoodEnergized.Color(),
			Songs: []models.Song{
				{Title: "Thunder", Artist: "Imagine Dragons"},
				{Title: "Believer", Artist: "Imagine Dragons"},
				{Title: "Stronger", Artist: "Kelly Clarkson"},
			},
		},
		{
			ID: 4, Name: "Rainy Day Blues", Mood: models.MoodSad, SongCount: 15, LastUpdated: "5 days ago",
			Color: models.MoodSad.Color(),
			Songs: []models.Song{
				{Title: "Someone Like You", Artist: "Adele"},
				{Title: "Fix You", Artist: "Coldplay"},
				{Title: "Hurt", Artist: "Johnny Cash"},
			},
		},
	}
}

func fallbackAnalytics() *models.AnalyticsOverview {
	return &models.AnalyticsOverview{
		TotalListeningHours: 41.0,
		DailyAverage:        5.9,
		TopMood:             models.MoodHappy,
		MoodPercentage:      35,
		WeekChange:          "+23%",
		MoodStats: []models.MoodStat{
			{Mood: models.MoodHappy, Percentage: 35, Color: models.MoodHappy.Color(), Hours: 14.2},
			{Mood: models.MoodEnergized, Percentage: 25, Color: models.MoodEnergized.Color(), Hours: 10.1},
			{Mood: models.MoodCalm, Percentage: 20, Color: models.MoodCalm.Color(), Hours: 8.3},
			{Mood: models.MoodSad, Percentage: 15, Color: models.MoodSad.Color(), Hours: 6.1},
			{Mood: models.MoodAngry, Percentage: 5, Color: models.MoodAngry.Color(), Hours: 2.3},
		},
		ListeningData: []models.ListeningDay{
			{Day: "Mon", Hours: 3.2}, {Day: "Tue", Hours: 2.8}, {Day: "Wed", Hours: 4.1}, {Day: "Thu", Hours: 3.7},
			{Day: "Fri", Hours: 5.2}, {Day: "Sat", Hours: 6.8}, {Day: "Sun", Hours: 4.9},
		},
		TopArtists: []models.TopArtist{
			{Name: "The Weeknd", Plays: 47, Change: "+12%"},
			{Name: "Dua Lipa", Plays: 39, Change: "+8%"},
			{Name: "Post Malone", Plays: 34, Change: "-3%"},
			{Name: "Olivia Rodrigo", Plays: 28, Change: "+15%"},
			{Name: "Imagine Dragons", Plays: 25, Change: "+5%"},
		},
		TopGenres: []models.TopGenre{
			{Name: "Pop", Percentage: 32, Color: "#4CAF50"},
			{Name: "Hip-Hop", Percentage: 28, Color: "#FFC107"},
			{Name: "Rock", Percentage: 18, Color: "#F44336"},
			{Name: "Electronic", Percentage: 12, Color: "#2196F3"},
			{Name: "Indie", Percentage: 10, Color: "#9C27B0"},
		},
	}
}
