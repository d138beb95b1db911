package detect

import (
	"regexp"
	"strings"
)

// Release holds the pieces of a torrent release name that the regex
// parser can recover without calling a model. CleanTitle/ParseRelease
// back the torrent flow when inference is unavailable.
type Release struct {
	Title   string
	Year    string
	Quality string
	Source  string
	Codec   string
	Audio   string
	Group   string
}

var (
	fileExtRe  = regexp.MustCompile(`(?i)\.(mkv|avi|mp4|mov|wmv|m4v|flv|webm)$`)
	yearConfRe = regexp.MustCompile(`[\s\(\[]((?:19|20)\d{2})[\s\)\]]?`)
	anyYearRe  = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	qualityRe = regexp.MustCompile(`(?i)\b(720p|1080p|2160p|4K|UHD)\b`)
	sourceRe  = regexp.MustCompile(`(?i)\b(BluRay|Blu-Ray|BDRip|BRRip|DVDRip|DVDR|HDRip|WEBRip|WEB-DL|WEBDL|WEB|HDTV|CAM|HDCAM|TS|TELESYNC)\b`)
	codecRe   = regexp.MustCompile(`(?i)\b(x264|x265|HEVC|H\.?264|H\.?265|XviD|AVC)\b`)
	audioRe   = regexp.MustCompile(`(?i)\b(AAC|AC3|DTS|DTS-HD|TrueHD|Atmos|FLAC|DD5\.?1|DD7\.?1)\b`)
	groupRe   = regexp.MustCompile(`-([A-Za-z0-9]+)(?:\s*\[.*\])?$`)
	tagOnlyRe = regexp.MustCompile(`(?i)^(720p|1080p|2160p|x264|x265|HEVC|AAC|AC3|DTS)$`)

	// Everything from the first release marker onward is noise for
	// title purposes.
	cutoffRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(720p|1080p|2160p|4K|UHD|HD|SD)\b.*`),
		regexp.MustCompile(`(?i)\b(BluRay|Blu-Ray|BDRip|BRRip|DVDRip|DVDR|DVD-R|HDRip|WEBRip|WEB-DL|WEBDL|WEB|HDTV|HDR|SDR|CAM|HDCAM|TS|TELESYNC|TC|TELECINE|SCR|SCREENER|R5|DVDScr)\b.*`),
		regexp.MustCompile(`(?i)\b(x264|x265|HEVC|H\.?264|H\.?265|XviD|DivX|AVC|MPEG|VP9|AV1)\b.*`),
		regexp.MustCompile(`(?i)\b(AAC|AC3|DTS|DTS-HD|TrueHD|Atmos|FLAC|MP3|DD5\.?1|DD7\.?1|5\.1|7\.1)\b.*`),
		regexp.MustCompile(`(?i)\b(YIFY|YTS|RARBG|SPARKS|AXXO|FGT|EVO|GECKOS|DRONES|PSA|MkvCage|ETRG|EtHD|ION10|BONE|NTG|CMRG|FLUX|NOGRP)\b.*`),
		regexp.MustCompile(`(?i)\b(EXTENDED|UNRATED|DIRECTORS\.?CUT|DC|THEATRICAL|REMASTERED|IMAX|3D|PROPER|REPACK|INTERNAL|LIMITED|COMPLETE|FINAL)\b.*`),
		regexp.MustCompile(`(?i)\b(MULTI|MULTi|DUAL|FRENCH|GERMAN|SPANISH|ITALIAN|RUSSIAN|HINDI|KOREAN|JAPANESE|CHINESE)\b.*`),
		regexp.MustCompile(`(?i)\b(SUBBED|DUBBED|SUBS|HARDSUB|HARDCODED|HC)\b.*`),
	}

	bracketedRe  = regexp.MustCompile(`\[.*?\]`)
	bracedRe     = regexp.MustCompile(`\{.*?\}`)
	parenRe      = regexp.MustCompile(`\([^)]*\)`)
	sitePrefixRe = regexp.MustCompile(`(?i)^(www\.[^\s]+\s*-?\s*)`)
	siteSuffixRe = regexp.MustCompile(`(?i)(-?\s*www\.[^\s]+)$`)
	siteNameRe   = regexp.MustCompile(`(?i)\b(tamilrockers|tamilmv|tamilblasters|tamilyogi|movierulz|filmyzilla|khatrimaza|123movies|putlocker|fmovies|1337x|kickass|piratebay|rartv|ettv|eztv|yesmovies|soap2day)\b\s*-?\s*`)
	leadDashRe   = regexp.MustCompile(`^\s*-\s*`)
	trailDashRe  = regexp.MustCompile(`\s*-\s*$`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// CleanTitle strips release noise (quality tags, codecs, groups, site
// names) from a torrent name, keeping the title plus the release year
// when one can be found, since the year improves lookup accuracy.
func CleanTitle(name string) string {
	name = fileExtRe.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, ".", " ")
	name = strings.ReplaceAll(name, "_", " ")

	year := ""
	if m := yearConfRe.FindStringSubmatch(name); len(m) > 1 {
		year = m[1]
	}

	for _, re := range cutoffRes {
		name = re.ReplaceAllString(name, "")
	}

	name = bracketedRe.ReplaceAllString(name, "")
	name = bracedRe.ReplaceAllString(name, "")
	name = parenRe.ReplaceAllString(name, "")
	name = anyYearRe.ReplaceAllString(name, "")
	name = sitePrefixRe.ReplaceAllString(name, "")
	name = siteSuffixRe.ReplaceAllString(name, "")
	name = siteNameRe.ReplaceAllString(name, "")

	name = trailDashRe.ReplaceAllString(name, "")
	name = leadDashRe.ReplaceAllString(name, "")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if year != "" {
		name = name + " " + year
	}
	return name
}

var seriesCutoffRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*S\d{1,2}E\d{1,2}.*`),
	regexp.MustCompile(`(?i)\s*S\d{1,2}\s*-\s*E\d{1,2}.*`),
	regexp.MustCompile(`(?i)\s*Season\s*\d+.*`),
	regexp.MustCompile(`(?i)\s*\d{1,2}x\d{1,2}.*`),
	regexp.MustCompile(`(?i)\s*S\d{1,2}\..*`),
	regexp.MustCompile(`(?i)\s*Complete.*`),
	regexp.MustCompile(`(?i)\s*(720p|1080p|2160p|4K|UHD).*`),
	regexp.MustCompile(`(?i)\s*(BluRay|BDRip|BRRip|DVDRip|HDRip|WEBRip|WEB-DL|HDTV).*`),
	regexp.MustCompile(`(?i)\s*(x264|x265|HEVC|H264|H265|XviD).*`),
	regexp.MustCompile(`(?i)\s*\[.*?\]`),
	regexp.MustCompile(`(?i)\s*\(.*?\)`),
}

var looseYearRe = regexp.MustCompile(`\s*(19|20)\d{2}\s*`)

// CleanSeriesTitle strips season/episode markers and release noise from
// a TV torrent name. Years are dropped entirely; series lookups rarely
// want them.
func CleanSeriesTitle(name string) string {
	name = fileExtRe.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, ".", " ")
	name = strings.ReplaceAll(name, "_", " ")

	for _, re := range seriesCutoffRes {
		name = re.ReplaceAllString(name, "")
	}

	name = looseYearRe.ReplaceAllString(name, " ")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// ParseRelease extracts the structured fields of a release name.
func ParseRelease(torrentName string) Release {
	rel := Release{}

	name := fileExtRe.ReplaceAllString(torrentName, "")
	working := strings.ReplaceAll(name, ".", " ")
	working = strings.ReplaceAll(working, "_", " ")

	if m := anyYearRe.FindString(working); m != "" {
		rel.Year = m
	}
	if m := qualityRe.FindStringSubmatch(working); len(m) > 1 {
		rel.Quality = strings.ToUpper(m[1])
	}
	if m := sourceRe.FindStringSubmatch(working); len(m) > 1 {
		rel.Source = m[1]
	}
	if m := codecRe.FindStringSubmatch(working); len(m) > 1 {
		rel.Codec = m[1]
	}
	if m := audioRe.FindStringSubmatch(working); len(m) > 1 {
		rel.Audio = m[1]
	}
	if m := groupRe.FindStringSubmatch(name); len(m) > 1 && !tagOnlyRe.MatchString(m[1]) {
		rel.Group = m[1]
	}

	rel.Title = CleanTitle(torrentName)
	return rel
}
