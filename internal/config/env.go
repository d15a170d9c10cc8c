package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envDefault(key, def string) string {
	if v := env(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := env(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := env(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// envList splits a comma separated value, dropping blanks.
func envList(key string) []string {
	return splitList(env(key))
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// familyKey turns a family name into an env suffix: "clear-time" -> "CLEAR_TIME".
func familyKey(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)
}
