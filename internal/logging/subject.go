package logging

import "strings"

// FormatSubject builds the worker/item/stage subject string used in console output.
func FormatSubject(worker, itemID, stage string) string {
	worker = strings.TrimSpace(worker)
	itemID = strings.TrimSpace(itemID)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 2)
	if worker != "" && worker != stage {
		parts = append(parts, worker)
	}
	switch {
	case itemID != "" && stage != "":
		parts = append(parts, itemID+" ("+stage+")")
	case itemID != "":
		parts = append(parts, itemID)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}
