// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON endpoints.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxAjuanBody bounds create, edit and review requests. Details carry
	// free text and links, so this is the largest limit.
	MaxAjuanBody = 1 << 20 // 1 MB

	// MaxCredentialsBody bounds sign-in and account creation requests.
	MaxCredentialsBody = 64 << 10 // 64 KB
)
