package utils

// UniqueStrings removes duplicate and empty values, keeping first occurrences in order.
func UniqueStrings(slice []string) []string {
	keys := make(map[string]bool, len(slice))
	list := []string{}
	for _, entry := range slice {
		if entry == "" || keys[entry] {
			continue
		}
		keys[entry] = true
		list = append(list, entry)
	}
	return list
}
