package database

import (
	"context"
	"testing"

	"github.com/jarne/linkleopard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func linkIDs(links []models.Link) []int64 {
	ids := make([]int64, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ID)
	}
	return ids
}

func mustCreate(t *testing.T, db Database, name string) models.Link {
	t.Helper()
	l, err := db.CreateLink(context.Background(), models.Link{
		Name: name,
		URL:  "https://" + name + ".example.com",
		Icon: "/uploads/favicon-" + name + ".png",
	})
	require.NoError(t, err)
	return l
}

// runDatabaseSuite checks behaviour every backend must share. newDB must
// return a freshly migrated, empty database.
func runDatabaseSuite(t *testing.T, newDB func(t *testing.T) Database) {
	ctx := context.Background()

	t.Run("create then get returns submitted fields", func(t *testing.T) {
		db := newDB(t)

		created, err := db.CreateLink(ctx, models.Link{
			Name:   "GitHub",
			URL:    "https://github.com",
			Icon:   "/uploads/favicon-1.png",
			Footer: true,
		})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		got, err := db.GetLink(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created, *got)
		assert.Equal(t, "GitHub", got.Name)
		assert.Equal(t, "https://github.com", got.URL)
		assert.Equal(t, "/uploads/favicon-1.png", got.Icon)
		assert.True(t, got.Footer)
	})

	t.Run("get unknown link is nil", func(t *testing.T) {
		db := newDB(t)

		got, err := db.GetLink(ctx, 4242)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list is empty and non-nil on a fresh database", func(t *testing.T) {
		db := newDB(t)

		links, err := db.GetLinks(ctx)
		require.NoError(t, err)
		assert.NotNil(t, links)
		assert.Empty(t, links)
	})

	t.Run("create defaults to insertion order", func(t *testing.T) {
		db := newDB(t)
		a := mustCreate(t, db, "a")
		b := mustCreate(t, db, "b")
		c := mustCreate(t, db, "c")

		assert.Less(t, a.Position, b.Position)
		assert.Less(t, b.Position, c.Position)

		links, err := db.GetLinks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{a.ID, b.ID, c.ID}, linkIDs(links))
	})

	t.Run("ids are never reused", func(t *testing.T) {
		db := newDB(t)
		a := mustCreate(t, db, "a")
		b := mustCreate(t, db, "b")

		deleted, err := db.DeleteLink(ctx, b.ID)
		require.NoError(t, err)
		require.True(t, deleted)

		c := mustCreate(t, db, "c")
		assert.NotEqual(t, a.ID, c.ID)
		assert.NotEqual(t, b.ID, c.ID)
	})

	t.Run("partial update keeps omitted fields", func(t *testing.T) {
		db := newDB(t)
		orig := mustCreate(t, db, "orig")

		updated, err := db.UpdateLink(ctx, orig.ID, models.LinkPatch{Name: strPtr("Renamed"), Footer: boolPtr(true)})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Renamed", updated.Name)
		assert.True(t, updated.Footer)
		assert.Equal(t, orig.URL, updated.URL)
		assert.Equal(t, orig.Icon, updated.Icon)
		assert.Equal(t, orig.Position, updated.Position)

		got, err := db.GetLink(ctx, orig.ID)
		require.NoError(t, err)
		assert.Equal(t, *updated, *got)
	})

	t.Run("update can clear the icon", func(t *testing.T) {
		db := newDB(t)
		orig := mustCreate(t, db, "icon")

		updated, err := db.UpdateLink(ctx, orig.ID, models.LinkPatch{Icon: strPtr("")})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "", updated.Icon)
	})

	t.Run("empty patch returns current row", func(t *testing.T) {
		db := newDB(t)
		orig := mustCreate(t, db, "same")

		got, err := db.UpdateLink(ctx, orig.ID, models.LinkPatch{})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, orig, *got)
	})

	t.Run("update unknown id is nil", func(t *testing.T) {
		db := newDB(t)

		got, err := db.UpdateLink(ctx, 999, models.LinkPatch{Name: strPtr("ghost")})
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = db.UpdateLink(ctx, 999, models.LinkPatch{})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete reports whether a row was removed", func(t *testing.T) {
		db := newDB(t)
		a := mustCreate(t, db, "a")
		b := mustCreate(t, db, "b")

		deleted, err := db.DeleteLink(ctx, 12345)
		require.NoError(t, err)
		assert.False(t, deleted)

		deleted, err = db.DeleteLink(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = db.DeleteLink(ctx, a.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		links, err := db.GetLinks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{b.ID}, linkIDs(links))
	})

	t.Run("list returns exactly the existing links", func(t *testing.T) {
		db := newDB(t)
		want := map[int64]bool{}
		var created []models.Link
		for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
			l := mustCreate(t, db, name)
			created = append(created, l)
			want[l.ID] = true
		}
		for i, l := range created {
			if i%2 == 0 {
				_, err := db.DeleteLink(ctx, l.ID)
				require.NoError(t, err)
				delete(want, l.ID)
			}
		}
		_, err := db.UpdateLink(ctx, created[1].ID, models.LinkPatch{URL: strPtr("https://changed.example.com")})
		require.NoError(t, err)

		links, err := db.GetLinks(ctx)
		require.NoError(t, err)
		require.Len(t, links, len(want))
		for _, l := range links {
			assert.True(t, want[l.ID], "unexpected link %d in list", l.ID)
		}
	})

	t.Run("reorder rewrites positions densely", func(t *testing.T) {
		db := newDB(t)
		a := mustCreate(t, db, "a")
		b := mustCreate(t, db, "b")
		c := mustCreate(t, db, "c")

		require.NoError(t, db.ReorderLinks(ctx, []int64{c.ID, a.ID, b.ID}))

		links, err := db.GetLinks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{c.ID, a.ID, b.ID}, linkIDs(links))
		for i, l := range links {
			assert.Equal(t, i+1, l.Position)
		}

		// New links go after the reordered set
		d := mustCreate(t, db, "d")
		assert.Equal(t, 4, d.Position)
	})

	t.Run("reorder ignores unknown ids", func(t *testing.T) {
		db := newDB(t)
		a := mustCreate(t, db, "a")
		b := mustCreate(t, db, "b")

		require.NoError(t, db.ReorderLinks(ctx, []int64{b.ID, 9999, a.ID}))

		links, err := db.GetLinks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{b.ID, a.ID}, linkIDs(links))
	})

	t.Run("equal positions break ties by id", func(t *testing.T) {
		db := newDB(t)
		a := mustCreate(t, db, "a")
		b := mustCreate(t, db, "b")
		c := mustCreate(t, db, "c")

		// Only the last two are repositioned, both onto position 1
		require.NoError(t, db.ReorderLinks(ctx, []int64{c.ID}))
		require.NoError(t, db.ReorderLinks(ctx, []int64{b.ID}))

		links, err := db.GetLinks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{a.ID, b.ID, c.ID}, linkIDs(links))
		assert.Equal(t, 1, links[0].Position)
		assert.Equal(t, 1, links[1].Position)
		assert.Equal(t, 1, links[2].Position)
	})

	t.Run("profile is absent until saved", func(t *testing.T) {
		db := newDB(t)

		p, err := db.GetProfile(ctx)
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("profile update then get round trips", func(t *testing.T) {
		db := newDB(t)

		first := models.Profile{Name: "Jane", Bio: "Hello", ProfilePicture: "/uploads/profile-1.png"}
		saved, err := db.UpdateProfile(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, first, saved)

		got, err := db.GetProfile(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, first, *got)

		second := models.Profile{
			Name:           "Jane Doe",
			Bio:            "Designer",
			ProfilePicture: "profile-2.png",
			AnalyticsCode:  `<script defer src="https://stats.example.com/a.js"></script>`,
		}
		_, err = db.UpdateProfile(ctx, second)
		require.NoError(t, err)

		got, err = db.GetProfile(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, second, *got)
	})
}
