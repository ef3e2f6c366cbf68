package message

// Envelope is the wire-level (header, payload) pair every serializer
// encodes and decodes. Payload holds the message class's declared
// properties; unknown keys found on decode are preserved verbatim so a
// decode-then-re-encode round trip is lossless even across schema drift.
type Envelope struct {
	Header  Header
	Payload map[string]interface{}
}

// FromEnvelope reconstructs a Base from a decoded envelope using desc.
// It fails with VersionMismatch if the wire header's version differs
// from desc.Version, in either direction; no version migration is
// performed.
func FromEnvelope(desc *ClassDescriptor, env Envelope) (*Base, error) {
	if env.Header.Version != desc.Version {
		return nil, &VersionMismatch{Class: desc.Name, Wire: env.Header.Version, Registered: desc.Version}
	}

	extras := make(map[string]interface{}, len(env.Payload))
	for k, v := range env.Payload {
		extras[k] = v
	}

	return &Base{descriptor: desc, header: env.Header, extras: extras}, nil
}
