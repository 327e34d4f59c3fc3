package models

import (
	"sort"
	"time"
)

const (
	StoryImage = "image"
	StoryVideo = "video"
	StoryText  = "text"

	DefaultStoryDuration = 5
)

// StoryItem is one piece of a user's 24h story.
type StoryItem struct {
	ID              int       `db:"id" json:"id"`
	UserID          int       `db:"user_id" json:"user_id"`
	MediaURL        string    `db:"media_url" json:"media_url"`
	MediaType       string    `db:"media_type" json:"media_type"`
	Caption         string    `db:"caption" json:"caption"`
	BackgroundColor string    `db:"background_color" json:"background_color"`
	FontStyle       string    `db:"font_style" json:"font_style"`
	Duration        int       `db:"duration" json:"duration"`
	ViewsCount      int       `db:"views_count" json:"views_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	ExpiresAt       time.Time `db:"expires_at" json:"expires_at"`
	IsViewed        bool      `db:"is_viewed" json:"is_viewed"`
	Username        string    `db:"username" json:"username,omitempty"`
	Avatar          string    `db:"avatar" json:"avatar,omitempty"`
}

// StoryGroup is the feed view of one author's visible items.
type StoryGroup struct {
	UserID      int         `json:"user_id"`
	Username    string      `json:"username"`
	Avatar      string      `json:"avatar"`
	HasUnviewed bool        `json:"has_unviewed"`
	Items       []StoryItem `json:"items"`
}

// StoryViewer is a user who opened a story item.
type StoryViewer struct {
	UserID   int       `db:"user_id" json:"user_id"`
	Username string    `db:"username" json:"username"`
	Avatar   string    `db:"avatar" json:"avatar"`
	ViewedAt time.Time `db:"viewed_at" json:"viewed_at"`
	Reaction *string   `db:"reaction" json:"reaction,omitempty"`
}

// ValidStoryType reports whether t is an accepted story media type.
func ValidStoryType(t string) bool {
	switch t {
	case StoryImage, StoryVideo, StoryText:
		return true
	}
	return false
}

// GroupStories folds items (oldest first) into per-author groups. Authors with
// unviewed items come first, then the most recently updated.
func GroupStories(items []StoryItem) []StoryGroup {
	groups := make([]StoryGroup, 0)
	latest := make([]time.Time, 0)
	index := map[int]int{}
	for _, item := range items {
		i, ok := index[item.UserID]
		if !ok {
			i = len(groups)
			index[item.UserID] = i
			groups = append(groups, StoryGroup{UserID: item.UserID, Username: item.Username, Avatar: item.Avatar})
			latest = append(latest, item.CreatedAt)
		}
		groups[i].Items = append(groups[i].Items, item)
		if !item.IsViewed {
			groups[i].HasUnviewed = true
		}
		if item.CreatedAt.After(latest[i]) {
			latest[i] = item.CreatedAt
		}
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ga, gb := groups[order[a]], groups[order[b]]
		if ga.HasUnviewed != gb.HasUnviewed {
			return ga.HasUnviewed
		}
		return latest[order[a]].After(latest[order[b]])
	})

	sorted := make([]StoryGroup, 0, len(groups))
	for _, i := range order {
		sorted = append(sorted, groups[i])
	}
	return sorted
}
