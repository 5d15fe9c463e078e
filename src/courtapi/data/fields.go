package data

import "strings"

func joinFields(fields []string) string { return strings.Join(fields, ",") }

func splitFields(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
