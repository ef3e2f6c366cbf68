package queue

import "encoding/json"

// encodeDeadLetter serializes a DeadLetterRecord with plain JSON: DLQ
// entries are operator-facing, not re-decoded by the message pipeline,
// so they don't need the pluggable serializer's class/version machinery.
func encodeDeadLetter(rec DeadLetterRecord) ([]byte, error) {
	return json.Marshal(rec)
}
