package archive

import "fmt"

// Redis key pattern helpers
//
// Key pattern: jacquard:{namespace}:{entity}:{id}
// Channel pattern: jacquard:{namespace}:{event_type}_events

// ProgramKey returns the Redis key for a program hash.
// Pattern: jacquard:{namespace}:program:{program_id}
func ProgramKey(namespace, programID string) string {
	return fmt.Sprintf("jacquard:%s:program:%s", namespace, programID)
}

// ProgramKeyPrefix returns the prefix shared by every program key in a
// namespace; SCAN patterns append a glob to it.
func ProgramKeyPrefix(namespace string) string {
	return fmt.Sprintf("jacquard:%s:program:", namespace)
}

// DigestKey returns the Redis key mapping a program digest to its ID.
// Pattern: jacquard:{namespace}:program_by_digest:{digest}
func DigestKey(namespace, digest string) string {
	return fmt.Sprintf("jacquard:%s:program_by_digest:%s", namespace, digest)
}

// ProgramsIndexKey returns the Redis key of the time-ordered program index.
// Pattern: jacquard:{namespace}:programs
func ProgramsIndexKey(namespace string) string {
	return fmt.Sprintf("jacquard:%s:programs", namespace)
}

// ProgramEventsChannel returns the Pub/Sub channel name for program events.
// Pattern: jacquard:{namespace}:program_events
func ProgramEventsChannel(namespace string) string {
	return fmt.Sprintf("jacquard:%s:program_events", namespace)
}
