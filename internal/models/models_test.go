package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestLinkPatchEmpty(t *testing.T) {
	assert.True(t, LinkPatch{}.Empty())
	assert.False(t, LinkPatch{Name: strPtr("Renamed")}.Empty())
	assert.False(t, LinkPatch{Icon: strPtr("")}.Empty())
	assert.False(t, LinkPatch{Footer: boolPtr(false)}.Empty())
}

func TestSplitLinks(t *testing.T) {
	links := []Link{
		{ID: 1, Name: "a"},
		{ID: 2, Name: "b", Footer: true},
		{ID: 3, Name: "c"},
		{ID: 4, Name: "d", Footer: true},
	}

	body, footer := SplitLinks(links)
	assert.Equal(t, []Link{links[0], links[2]}, body)
	assert.Equal(t, []Link{links[1], links[3]}, footer)

	body, footer = SplitLinks(nil)
	assert.Empty(t, body)
	assert.Empty(t, footer)
}

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	assert.Equal(t, DefaultProfileName, p.Name)
	assert.Equal(t, DefaultProfileBio, p.Bio)
	assert.Equal(t, DefaultProfilePicture, p.ProfilePicture)
	assert.Empty(t, p.AnalyticsCode)
}
