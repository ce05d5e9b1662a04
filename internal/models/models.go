package models

import "html/template"

type Link struct {
	ID       int64  `json:"id"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Position int    `json:"position"`
	Footer   bool   `json:"footer"`
}

// LinkPatch carries a partial update. Nil fields are left untouched.
type LinkPatch struct {
	URL    *string `json:"url,omitempty"`
	Name   *string `json:"name,omitempty"`
	Icon   *string `json:"icon,omitempty"`
	Footer *bool   `json:"footer,omitempty"`
}

func (p LinkPatch) Empty() bool {
	return p.URL == nil && p.Name == nil && p.Icon == nil && p.Footer == nil
}

type Profile struct {
	Name           string `json:"name"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
	AnalyticsCode  string `json:"analyticsCode"`
}

// Placeholder values shown on the public page until a profile is saved.
const (
	DefaultProfileName    = "Jane Doe"
	DefaultProfileBio     = "Designer & Developer | Creating beautiful digital experiences"
	DefaultProfilePicture = "/static/profile.svg"
)

func DefaultProfile() Profile {
	return Profile{
		Name:           DefaultProfileName,
		Bio:            DefaultProfileBio,
		ProfilePicture: DefaultProfilePicture,
	}
}

// SplitLinks separates main-list links from footer links, keeping order.
func SplitLinks(links []Link) (body, footer []Link) {
	for _, l := range links {
		if l.Footer {
			footer = append(footer, l)
		} else {
			body = append(body, l)
		}
	}
	return body, footer
}

type AdminPageData struct {
	Profile    Profile
	HasProfile bool
	Links      []Link
	Message    string
	Error      string
}

type IndexPageData struct {
	Profile     Profile
	Bio         template.HTML
	Analytics   template.HTML
	Links       []Link
	FooterLinks []Link
}
