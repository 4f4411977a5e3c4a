// Package static embeds the kiosk frontend.
package static

import _ "embed"

//go:embed index.html
var indexHTML []byte

// IndexHTML returns the embedded kiosk page.
func IndexHTML() []byte {
	return indexHTML
}
