package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for HTTP requests and the media
// pipeline. Intentionally minimal and in-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	extractionsTotal = make(map[extractKey]int64)
	torrentAddsTotal = make(map[outcomeKey]int64)
	mediaAddsTotal   = make(map[outcomeKey]int64)
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

type extractKey struct {
	Model   string
	Success string
}

// outcomeKey labels torrent adds by category and media adds by type.
type outcomeKey struct {
	Label   string
	Success string
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// RecordRequest increments the request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	requestsTotal[reqKey{Method: method, Path: path, Status: status}]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordExtraction counts one inference-backed title extraction.
func RecordExtraction(model string, success bool) {
	mu.Lock()
	defer mu.Unlock()
	extractionsTotal[extractKey{Model: model, Success: boolLabel(success)}]++
}

// RecordTorrentAdd counts one qBittorrent add attempt per category.
func RecordTorrentAdd(category string, success bool) {
	mu.Lock()
	defer mu.Unlock()
	torrentAddsTotal[outcomeKey{Label: category, Success: boolLabel(success)}]++
}

// RecordMediaAdd counts one Radarr/Sonarr library add per media type.
func RecordMediaAdd(mediaType string, success bool) {
	mu.Lock()
	defer mu.Unlock()
	mediaAddsTotal[outcomeKey{Label: mediaType, Success: boolLabel(success)}]++
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP mediarr_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE mediarr_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})
	for _, k := range reqKeys {
		fmt.Fprintf(&b, "mediarr_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, requestsTotal[k])
	}

	b.WriteString("# HELP mediarr_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE mediarr_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP mediarr_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE mediarr_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})
	for _, k := range latKeys {
		fmt.Fprintf(&b, "mediarr_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, latencyMsSum[k])
		fmt.Fprintf(&b, "mediarr_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, latencyMsCount[k])
	}

	b.WriteString("# HELP mediarr_extractions_total Total title extractions by model and outcome\n")
	b.WriteString("# TYPE mediarr_extractions_total counter\n")

	var extKeys []extractKey
	for k := range extractionsTotal {
		extKeys = append(extKeys, k)
	}
	sort.Slice(extKeys, func(i, j int) bool {
		if extKeys[i].Model != extKeys[j].Model {
			return extKeys[i].Model < extKeys[j].Model
		}
		return extKeys[i].Success < extKeys[j].Success
	})
	for _, k := range extKeys {
		fmt.Fprintf(&b, "mediarr_extractions_total{model=\"%s\",success=\"%s\"} %d\n",
			k.Model, k.Success, extractionsTotal[k])
	}

	writeOutcomes(&b, "mediarr_torrent_adds_total", "Total qBittorrent add attempts by category", "category", torrentAddsTotal)
	writeOutcomes(&b, "mediarr_media_adds_total", "Total Radarr/Sonarr library adds by media type", "type", mediaAddsTotal)

	return b.String()
}

func writeOutcomes(b *strings.Builder, name, help, labelName string, counts map[outcomeKey]int64) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s counter\n", name, help, name)

	var keys []outcomeKey
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Label != keys[j].Label {
			return keys[i].Label < keys[j].Label
		}
		return keys[i].Success < keys[j].Success
	})
	for _, k := range keys {
		fmt.Fprintf(b, "%s{%s=\"%s\",success=\"%s\"} %d\n", name, labelName, k.Label, k.Success, counts[k])
	}
}
