package relay

import "gemini-relay/internal/shared"

// BuildCandidates returns the models to try, in order: the requested model
// followed by the defaults. Empty and repeated names are dropped. The result
// is never empty.
func BuildCandidates(requested string, defaults []string) []string {
	seen := make(map[string]struct{}, len(defaults)+1)
	out := make([]string, 0, len(defaults)+1)
	for _, m := range append([]string{requested}, defaults...) {
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	if len(out) == 0 {
		out = append(out, shared.DefaultModel)
	}
	return out
}
