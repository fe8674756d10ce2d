// internal/app/system/limits/limits.go
package limits

// Request body size limits for JSON endpoints.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody bounds ordinary create/update payloads.
	MaxJSONBody = 64 << 10 // 64 KB

	// MaxPostBody bounds discussion and reply payloads, which carry HTML.
	MaxPostBody = 1 << 20 // 1 MB
)

// Field length limits, counted in runes after trimming.
const (
	MaxTitle       = 200
	MaxName        = 100
	MaxBio         = 2000
	MaxDescription = 5000
	MaxTopics      = 10
)

// MaxList caps how many records a list endpoint returns. This bounds the
// response size only; there is no pagination.
const MaxList = 200
