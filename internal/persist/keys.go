package persist

import "fmt"

const keyPrefix = "magpie"

// Keys are the storage keys of one screen instance.
type Keys struct {
	PageSize     string
	Page         string
	Scroll       string
	RestoreState string
	Filters      string
}

// Namespace returns the keys for screen. Keys are stable across runs.
func Namespace(screen string) Keys {
	k := func(suffix string) string {
		return fmt.Sprintf("%s.%s.%s", keyPrefix, screen, suffix)
	}
	return Keys{
		PageSize:     k("page-size"),
		Page:         k("page"),
		Scroll:       k("scroll"),
		RestoreState: k("restore-state"),
		Filters:      k("filters"),
	}
}
