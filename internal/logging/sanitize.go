// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package logging

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxLoggedValue bounds viewer supplied strings in log output.
const maxLoggedValue = 200

// Sanitize escapes control characters and truncates s so that viewer chat
// cannot forge log lines or flood the log.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	n := 0
	for _, r := range s {
		if n == maxLoggedValue {
			b.WriteString("...")
			break
		}
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else if r == utf8.RuneError {
			b.WriteString("\\ufffd")
		} else {
			b.WriteRune(r)
		}
		n++
	}
	return b.String()
}
