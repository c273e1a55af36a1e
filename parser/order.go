package parser

import (
	"math"
	"sort"
)

// Dedup drops repeated URLs, keeping the first occurrence of each.
func Dedup(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// SmartSort orders urls by the number in their file names. The sort is
// stable, so equal keys and names without digits keep document order.
// The input slice is not modified.
func SmartSort(urls []string) []string {
	type keyed struct {
		key float64
		url string
	}

	items := make([]keyed, len(urls))
	for i, u := range urls {
		items[i] = keyed{key: NumberFromFilename(u), url: u}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].key < items[j].key })

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.url
	}

	for i, it := range items {
		if i == 5 {
			log.Debugf("... and %d more images", len(items)-5)
			break
		}
		if math.IsInf(it.key, 1) {
			log.Debugf("[%d] no number - %s", i+1, Filename(it.url))
		} else {
			log.Debugf("[%d] number %3.0f - %s", i+1, it.key, Filename(it.url))
		}
	}
	return out
}
