// Package kafkaaddr parses bootstrap server lists shared by the Kafka
// snapshot store and the changelog writers.
package kafkaaddr

import "strings"

// Split turns "a:9092, b:9092" into its non-empty host:port entries.
func Split(bootstrap string) []string {
	var out []string
	for _, a := range strings.Split(bootstrap, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
