package template

import (
	"testing"

	"github.com/sv4u/tidaldl/tidal"
)

func discovery() Values {
	return Values{
		Item: &tidal.Item{
			ID:          "3",
			Kind:        tidal.ItemKindTrack,
			Title:       "Harder Better Faster Stronger",
			Artists:     []tidal.Artist{{Name: "Daft Punk"}},
			TrackNumber: 3,
			Duration:    224,
		},
		Album: &tidal.Album{
			Title:       "Discovery",
			Artist:      "Daft Punk",
			ReleaseDate: "2001-03-12",
		},
	}
}

func TestRender_AlbumPath(t *testing.T) {
	tmpl, err := Parse("{album.artist}/{album.title}/{item.number:02d}. {item.title}")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	got := tmpl.Render(discovery())
	want := "Daft Punk/Discovery/03. Harder Better Faster Stronger"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_EmptyOptionalFieldCollapses(t *testing.T) {
	tmpl, err := Parse("{item.artist}/{item.version}/{item.title}")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	got := tmpl.Render(discovery())
	want := "Daft Punk/Harder Better Faster Stronger"
	if got != want {
		t.Errorf("empty segment should be dropped: got %q, want %q", got, want)
	}
}

func TestRender_UnknownFieldIsEmpty(t *testing.T) {
	tmpl, err := Parse("{item.title} {item.nonexistent}")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got := tmpl.Render(discovery()); got != "Harder Better Faster Stronger" {
		t.Errorf("got %q", got)
	}
}

func TestRender_BoolUserFormat(t *testing.T) {
	values := discovery()
	values.Item.Explicit = true

	cases := []struct {
		template string
		want     string
	}{
		{"{item.title} {item.explicit:E}", "Harder Better Faster Stronger E"},
		{"{item.title} {item.explicit:E:C}", "Harder Better Faster Stronger E"},
		{"{item.title} {item.dolby-atmos:Atmos}", "Harder Better Faster Stronger"},
		{"{item.title} {item.dolby-atmos:Atmos:Stereo}", "Harder Better Faster Stronger Stereo"},
	}
	for _, tc := range cases {
		tmpl, err := Parse(tc.template)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.template, err)
		}
		if got := tmpl.Render(values); got != tc.want {
			t.Errorf("%q rendered %q, want %q", tc.template, got, tc.want)
		}
	}
}

func TestRender_DateFormat(t *testing.T) {
	tmpl, err := Parse("{album.year} - {album.title}")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got := tmpl.Render(discovery()); got != "2001 - Discovery" {
		t.Errorf("got %q", got)
	}

	tmpl, err = Parse("{album.date:%Y.%m}/{album.title}")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got := tmpl.Render(discovery()); got != "2001.03/Discovery" {
		t.Errorf("got %q", got)
	}
}

func TestRender_PlaylistScope(t *testing.T) {
	values := discovery()
	values.Playlist = &PlaylistContext{
		Title: "Roadtrip",
		Owner: "alice",
		Index: 12,
		Total: 40,
	}
	tmpl, err := Parse("{playlist.owner}/{playlist.title}/{playlist.number:03d} {item.title}")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	want := "alice/Roadtrip/012 Harder Better Faster Stronger"
	if got := tmpl.Render(values); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_ExtraScope(t *testing.T) {
	values := discovery()
	values.Extra = map[string]map[string]string{
		"out": {"ext": "flac"},
	}
	tmpl, err := Parse("{item.title}.{out.ext}", "out")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got := tmpl.Render(values); got != "Harder Better Faster Stronger.flac" {
		t.Errorf("got %q", got)
	}
}

func TestRender_SegmentSanitization(t *testing.T) {
	values := discovery()
	values.Album.Title = `What: "Is" <This>?`
	values.Item.Title = " .trimmed. "
	tmpl, err := Parse("{album.title}/{item.title}")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got := tmpl.Render(values); got != "What Is This/trimmed" {
		t.Errorf("got %q", got)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		"{item.title",         // unmatched {
		"item.title}",         // unmatched }
		"{unknownscope.title}",
		"{}",
		"{item}",
		"{item.}",
	}
	for _, raw := range cases {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q) should fail", raw)
		}
	}
}

func TestParse_FailsOnceBeforeDownloads(t *testing.T) {
	// A bad template is a load-time error, independent of any item data.
	if _, err := Parse("{album.artist}/{item.title"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestReferences(t *testing.T) {
	tmpl, err := Parse("{album.artist}/{item.title}")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !tmpl.References(ScopeAlbum) {
		t.Error("template references the album scope")
	}
	if tmpl.References(ScopePlaylist) {
		t.Error("template does not reference the playlist scope")
	}
}

func TestRender_MissingScopesRenderEmpty(t *testing.T) {
	tmpl, err := Parse("{playlist.title}/{album.artist}/{item.title}")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	got := tmpl.Render(Values{Item: discovery().Item})
	if got != "Harder Better Faster Stronger" {
		t.Errorf("got %q", got)
	}
}
