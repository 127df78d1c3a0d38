package uploader

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeName makes a user-supplied name safe for use in storage keys:
// accents are decomposed and stripped, whitespace becomes underscores, and
// anything outside [a-z0-9._-] is dropped. The result is lowercase.
func SanitizeName(name string) string {
	decomposed := norm.NFKD.String(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	for strings.Contains(cleaned, "__") {
		cleaned = strings.ReplaceAll(cleaned, "__", "_")
	}
	return strings.Trim(cleaned, "._")
}

// SegmentKey derives the storage key for one video chunk. The index is
// zero-padded to four digits so keys list in playback order.
func SegmentKey(anime string, season, episode, index int) string {
	return fmt.Sprintf("%s/seasons/%d/episodes/s%d_e%d_segment_%04d.mp4",
		SanitizeName(anime), season, season, episode, index)
}

// ThumbnailKey derives the storage key for the episode thumbnail, keeping the
// extension of the uploaded file.
func ThumbnailKey(anime, filename string) string {
	clean := SanitizeName(anime)
	return fmt.Sprintf("%s/%s_thumbnail%s", clean, clean, keyExtension(filename))
}

// PosterKey derives the storage key for the optional poster image.
func PosterKey(anime, filename string) string {
	clean := SanitizeName(anime)
	return fmt.Sprintf("%s/%s_poster%s", clean, clean, keyExtension(filename))
}

func keyExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return ext
}
