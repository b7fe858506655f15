package nextflow

import (
	"sort"
	"strings"
)

// Environ returns base with overrides applied.
// Overridden keys keep their position; new keys are appended sorted by name.
func Environ(base []string, overrides map[string]string) []string {
	env := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if v, ok := overrides[key]; ok {
			if seen[key] {
				continue
			}
			seen[key] = true
			env = append(env, key+"="+v)
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}

// runnerEnv is the set of variables forced on the runner
func (s Settings) runnerEnv(volume string) map[string]string {
	return map[string]string{
		"NXF_HOME":                 s.Home,
		"NXF_OPTS":                 s.Opts,
		"K8S_STORAGE_CLAIM_NAME":   volume,
		"NXF_DISABLE_CHECK_LATEST": "true",
	}
}
