// Package enrich reconciles supplementary track metadata from independent
// sources. Field values are append-only: the first source to supply a field
// owns it and later sources never overwrite it.
package enrich

import "strings"

// Source identifies where an enrichment field came from.
type Source string

const (
	SourceTidal       Source = "tidal"
	SourceMusicBrainz Source = "musicbrainz"
	SourceGetSongBPM  Source = "getsongbpm"
)

// Field names used for provenance tracking.
const (
	FieldBPM           = "bpm"
	FieldKey           = "key"
	FieldCamelot       = "camelot"
	FieldTimeSignature = "time_signature"
	FieldGenres        = "genres"
	FieldMood          = "mood"
)

// moodTags is the tag vocabulary treated as mood descriptors.
var moodTags = map[string]bool{
	"happy": true, "sad": true, "melancholic": true, "uplifting": true,
	"dark": true, "aggressive": true, "calm": true, "relaxing": true,
	"energetic": true, "romantic": true, "dreamy": true, "nostalgic": true,
	"intense": true, "peaceful": true, "euphoric": true, "mellow": true,
	"groovy": true, "hypnotic": true, "atmospheric": true, "emotional": true,
	"powerful": true, "gentle": true, "driving": true,
}

// Partial is the fragment of enrichment data one source can supply.
// Zero values mean the source had nothing for that field.
type Partial struct {
	BPM           int
	Key           string
	Camelot       string
	TimeSignature string
	Genres        []string
	Tags          []string
}

// Record is the merged enrichment result for one item.
type Record struct {
	BPM           int
	Key           string
	Camelot       string
	TimeSignature string
	Genres        []string
	Mood          string

	origin map[string]Source
}

// Origin reports which source supplied a field, if any source did.
func (r *Record) Origin(field string) (Source, bool) {
	src, ok := r.origin[field]
	return src, ok
}

func (r *Record) claim(field string, src Source) bool {
	if r.origin == nil {
		r.origin = make(map[string]Source)
	}
	if _, taken := r.origin[field]; taken {
		return false
	}
	r.origin[field] = src
	return true
}

// Merge folds a source's partial result into the record. Fields already
// claimed by an earlier source are left untouched. A mood is derived from
// the source's tags when no mood has been claimed yet.
func (r *Record) Merge(partial Partial, src Source) {
	if partial.BPM > 0 && r.claim(FieldBPM, src) {
		r.BPM = partial.BPM
	}
	if partial.Key != "" && r.claim(FieldKey, src) {
		r.Key = partial.Key
	}
	if partial.Camelot != "" && r.claim(FieldCamelot, src) {
		r.Camelot = partial.Camelot
	}
	if partial.TimeSignature != "" && r.claim(FieldTimeSignature, src) {
		r.TimeSignature = partial.TimeSignature
	}
	if len(partial.Genres) > 0 && r.claim(FieldGenres, src) {
		r.Genres = append([]string(nil), partial.Genres...)
	}
	if mood := moodFromTags(partial.Tags); mood != "" && r.claim(FieldMood, src) {
		r.Mood = mood
	}
}

// moodFromTags picks the first tag in the mood vocabulary.
func moodFromTags(tags []string) string {
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		if moodTags[lower] {
			return strings.ToUpper(lower[:1]) + lower[1:]
		}
	}
	return ""
}
