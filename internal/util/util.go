// Package util holds small generic data structures and formatting helpers
// shared across yomimemo's engine packages.
package util

import "strings"

// MakeTextList joins items into a human-readable comma list with an Oxford
// comma, used to render the atoms making up a recommended sentence.
func MakeTextList(items []string) string {
	if len(items) < 1 {
		return ""
	}

	output := ""

	if len(items) == 1 {
		output += items[0]
	} else if len(items) == 2 {
		output += items[0] + " and " + items[1]
	} else {
		// if its more than two, use an oxford comma
		items[len(items)-1] = "and " + items[len(items)-1]
		output += strings.Join(items, ", ")
	}

	return output
}
