package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOnline(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fourMinutes := now.Add(-4 * time.Minute)
	sixMinutes := now.Add(-6 * time.Minute)

	assert.True(t, IsOnline(&fourMinutes, now, 5*time.Minute))
	assert.False(t, IsOnline(&sixMinutes, now, 5*time.Minute))
	assert.False(t, IsOnline(nil, now, 5*time.Minute))
}

func TestResolveCounterpartDirectChat(t *testing.T) {
	now := time.Now()
	seen := now.Add(-time.Minute)
	otherID := 7
	name, avatar := "bob", "B"
	summary := ChatSummary{ID: 1, Name: "", OtherUserID: &otherID, OtherUsername: &name, OtherAvatar: &avatar, OtherLastSeen: &seen}

	summary.ResolveCounterpart(now, 5*time.Minute)

	assert.Equal(t, "bob", summary.Name)
	assert.Equal(t, "B", summary.Avatar)
	require.NotNil(t, summary.Online)
	assert.True(t, *summary.Online)
}

func TestResolveCounterpartSkipsGroups(t *testing.T) {
	otherID := 7
	name := "bob"
	summary := ChatSummary{ID: 1, Name: "team", IsGroup: true, OtherUserID: &otherID, OtherUsername: &name}

	summary.ResolveCounterpart(time.Now(), 5*time.Minute)

	assert.Equal(t, "team", summary.Name)
	assert.Nil(t, summary.Online)
}

func TestGroupStoriesOrdersUnviewedFirst(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	items := []StoryItem{
		{ID: 1, UserID: 10, Username: "ann", CreatedAt: base, IsViewed: true},
		{ID: 2, UserID: 20, Username: "bob", CreatedAt: base.Add(time.Minute), IsViewed: false},
		{ID: 3, UserID: 10, Username: "ann", CreatedAt: base.Add(2 * time.Minute), IsViewed: true},
		{ID: 4, UserID: 30, Username: "cid", CreatedAt: base.Add(3 * time.Minute), IsViewed: true},
	}

	groups := GroupStories(items)

	require.Len(t, groups, 3)
	assert.Equal(t, 20, groups[0].UserID)
	assert.True(t, groups[0].HasUnviewed)
	assert.Equal(t, 30, groups[1].UserID)
	assert.Equal(t, 10, groups[2].UserID)
	assert.Equal(t, []int{1, 3}, []int{groups[2].Items[0].ID, groups[2].Items[1].ID})
}

func TestAttachScannedMedia(t *testing.T) {
	kind, url := MediaVideo, "https://cdn/x.mp4"
	view := MessageView{Message: Message{ID: 3}, MediaType: &kind, MediaURL: &url}
	view.AttachScannedMedia()

	require.NotNil(t, view.Media)
	assert.Equal(t, 3, view.Media.MessageID)
	assert.Equal(t, MediaVideo, view.Media.Type)

	empty := MessageView{Message: Message{ID: 4}}
	empty.AttachScannedMedia()
	assert.Nil(t, empty.Media)
}

func TestValidTypes(t *testing.T) {
	assert.True(t, ValidMediaType("audio"))
	assert.False(t, ValidMediaType("text"))
	assert.True(t, ValidStoryType("text"))
	assert.False(t, ValidStoryType("audio"))
}
