package scoring

// Category identifies one of the five scored skills.
//
// Each category has two serialization forms: the internal name used in API
// payloads and prompts, and the persisted name used in call_scores and
// user_progress columns. The two differ for historical reasons
// (objection_handling/objection, call_control/communication); the mapping is
// total and applied only at the persistence boundary, never in reverse on the
// way in.
type Category int

const (
	CategoryOpening Category = iota
	CategoryDiscovery
	CategoryObjectionHandling
	CategoryCallControl
	CategoryClosing
)

var categoryInternal = [...]string{
	CategoryOpening:           "opening",
	CategoryDiscovery:         "discovery",
	CategoryObjectionHandling: "objection_handling",
	CategoryCallControl:       "call_control",
	CategoryClosing:           "closing",
}

var categoryPersisted = [...]string{
	CategoryOpening:           "opening",
	CategoryDiscovery:         "discovery",
	CategoryObjectionHandling: "objection",
	CategoryCallControl:       "communication",
	CategoryClosing:           "closing",
}

// Internal returns the in-memory/API name of the category.
func (c Category) Internal() string {
	if c < 0 || int(c) >= len(categoryInternal) {
		return ""
	}
	return categoryInternal[c]
}

// Persisted returns the storage-layer name of the category.
func (c Category) Persisted() string {
	if c < 0 || int(c) >= len(categoryPersisted) {
		return ""
	}
	return categoryPersisted[c]
}

// Categories lists all five categories in a stable order.
func Categories() [5]Category {
	return [5]Category{
		CategoryOpening,
		CategoryDiscovery,
		CategoryObjectionHandling,
		CategoryCallControl,
		CategoryClosing,
	}
}

// CategoryFromInternal resolves an internal name to its category.
func CategoryFromInternal(s string) (Category, bool) {
	for _, c := range Categories() {
		if categoryInternal[c] == s {
			return c, true
		}
	}
	return 0, false
}

// CategoryFromPersisted resolves a persisted name to its category.
func CategoryFromPersisted(s string) (Category, bool) {
	for _, c := range Categories() {
		if categoryPersisted[c] == s {
			return c, true
		}
	}
	return 0, false
}
