package redis

import "strings"

const keyNamespace = "ciclos"

// Key joins non-empty parts under the ciclos namespace.
func Key(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			b.WriteByte(':')
			b.WriteString(p)
		}
	}
	return b.String()
}

// SchedulerLockKey is shared by every scheduler replica of one environment.
func SchedulerLockKey(env string) string {
	return Key("scheduler", "lock", strings.ToLower(env))
}
