package services

import "strings"

// blocklist is matched as lowercase substrings. Deliberately simple; not a language filter.
var blocklist = []string{
	"fuck",
	"shit",
	"ass",
	"bitch",
	"damn",
	"crap",
	"dick",
	"cock",
	"pussy",
	"nigger",
	"nigga",
	"faggot",
	"retard",
	"rape",
	"kill",
	"murder",
	"hitler",
	"nazi",
}

// ContainsProfanity reports whether text contains any blocked token, case-insensitively.
func ContainsProfanity(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, word := range blocklist {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
