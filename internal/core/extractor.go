package core

// LocalExtractor converts fetched file bytes to plain text without a remote
// call. Used as the fallback when the AI extraction service fails.
type LocalExtractor interface {
	ExtractText(data []byte, contentType string) (string, error)
}
