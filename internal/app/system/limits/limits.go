// internal/app/system/limits/limits.go
package limits

// Request body size limits.
const (
	// MaxJSONBody caps JSON request bodies (login, moderator creation).
	MaxJSONBody = 1 << 20 // 1 MB
)
