package curriculum

import (
	"strconv"
	"strings"
)

// parseSelection extracts 1-based candidate indices from an oracle reply.
// Each bracketed group is tried in order and the first one that yields an
// index wins; without brackets the whole reply is read as the list. Entries
// that are not integers, are out of [1, n] or repeat an earlier entry are
// skipped. At most limit indices are returned, in reply order.
func parseSelection(reply string, n, limit int) []int {
	for _, group := range bracketGroups(reply) {
		if indices := parseIndices(group, n, limit); len(indices) > 0 {
			return indices
		}
	}
	return nil
}

// bracketGroups splits the reply into the bodies of its [...] groups. An
// unclosed bracket runs to the end of the reply.
func bracketGroups(reply string) []string {
	body := strings.TrimSpace(reply)
	if !strings.Contains(body, "[") {
		return []string{body}
	}

	var groups []string
	for {
		start := strings.Index(body, "[")
		if start < 0 {
			return groups
		}
		body = body[start+1:]

		end := strings.Index(body, "]")
		if end < 0 {
			return append(groups, body)
		}
		groups = append(groups, body[:end])
		body = body[end+1:]
	}
}

func parseIndices(list string, n, limit int) []int {
	seen := make(map[int]bool)
	var indices []int
	for _, field := range strings.Split(list, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || idx < 1 || idx > n || seen[idx] {
			continue
		}
		seen[idx] = true
		indices = append(indices, idx)
		if len(indices) == limit {
			break
		}
	}
	return indices
}
