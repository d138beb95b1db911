package detect

import (
	"net/url"
	"regexp"
	"strings"
)

// MediaType classifies a release as a movie or a TV series.
type MediaType string

const (
	Movie MediaType = "movie"
	TV    MediaType = "tv"
)

// Patterns that point at a TV series. Scored individually; the
// season/episode shapes below are treated as definitive.
var tvPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)S\d{1,2}E\d{1,2}`),
	regexp.MustCompile(`(?i)S\d{1,2}\s*-\s*E\d{1,2}`),
	regexp.MustCompile(`(?i)Season\s*\d+`),
	regexp.MustCompile(`(?i)Episode\s*\d+`),
	regexp.MustCompile(`(?i)\d{1,2}x\d{1,2}`),
	regexp.MustCompile(`(?i)\.S\d{1,2}\.`),
	regexp.MustCompile(`(?i)Complete\s*Series`),
	regexp.MustCompile(`(?i)TV\s*Series`),
	regexp.MustCompile(`(?i)HDTV`),
	regexp.MustCompile(`(?i)WEB-?DL.*S\d{1,2}`),
	regexp.MustCompile(`(?i)Season\s*\d+.*Complete`),
	regexp.MustCompile(`(?i)\[?\d{1,2}of\d{1,2}\]?`),
	regexp.MustCompile(`(?i)E\d{2,4}`),
	regexp.MustCompile(`(?i)Part\s*\d+\s*of\s*\d+`),
	regexp.MustCompile(`(?i)S\d{1,2}\.Complete`),
	regexp.MustCompile(`(?i)Mini[.-]?Series`),
}

// Patterns that point at a movie release.
var moviePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(19|20)\d{2}.*?(720p|1080p|2160p|4K|BluRay|BDRip|HDRip|WEBRip|DVDR)`),
	regexp.MustCompile(`(?i)BluRay`),
	regexp.MustCompile(`(?i)BDRip`),
	regexp.MustCompile(`(?i)DVDRip`),
	regexp.MustCompile(`(?i)DVDR`),
	regexp.MustCompile(`(?i)CAM\b`),
	regexp.MustCompile(`(?i)HDCAM`),
	regexp.MustCompile(`(?i)TS\b`),
	regexp.MustCompile(`(?i)TELESYNC`),
	regexp.MustCompile(`(?i)HDRip`),
	regexp.MustCompile(`(?i)WEB-?Rip`),
	regexp.MustCompile(`(?i)IMAX`),
	regexp.MustCompile(`(?i)Directors?\.?Cut`),
	regexp.MustCompile(`(?i)Extended\.?Cut`),
	regexp.MustCompile(`(?i)Unrated`),
	regexp.MustCompile(`(?i)Theatrical`),
}

var (
	seasonEpisodeRe = regexp.MustCompile(`(?i)S\d{1,2}E\d{1,2}`)
	seasonOnlyRe    = regexp.MustCompile(`(?i)(Season\s*\d+|\.S\d{1,2}\.)`)
)

// IsMagnetLink reports whether s looks like a magnet URI.
func IsMagnetLink(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "magnet:?")
}

// NameFromMagnet pulls the display name out of a magnet link. When no
// dn parameter is present the link itself is returned so callers can
// still feed something to the extractor.
func NameFromMagnet(magnetLink string) string {
	u, err := url.Parse(magnetLink)
	if err != nil {
		return magnetLink
	}

	dn := u.Query().Get("dn")
	if dn == "" {
		return magnetLink
	}

	if decoded, err := url.QueryUnescape(dn); err == nil {
		return decoded
	}
	return dn
}

// Detect classifies a magnet link as a movie or TV release by scoring
// pattern hits against its display name. Season/episode markers win
// outright; otherwise the higher score wins and ties fall back to
// movie, since most single releases without season markers are films.
func Detect(magnetLink string) MediaType {
	name := strings.ToLower(NameFromMagnet(magnetLink))

	tvScore := 0
	for _, p := range tvPatterns {
		if p.MatchString(name) {
			tvScore++
		}
	}

	movieScore := 0
	for _, p := range moviePatterns {
		if p.MatchString(name) {
			movieScore++
		}
	}

	if tvScore > 0 {
		if seasonEpisodeRe.MatchString(name) || seasonOnlyRe.MatchString(name) {
			return TV
		}
	}

	if tvScore > movieScore {
		return TV
	}
	return Movie
}
