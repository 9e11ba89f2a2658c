package domain

// Envelope wire format:
//
//	[version:1][flag:1][keyCount:1]([keyIDLen:1][keyID:n])...[ciphertext]
//
// Flag byte values:
//	0x00 = plaintext was not compressed before encryption
//	0x01 = plaintext was zstd compressed before encryption
//
// The header carries the key ids used to encrypt so that rotation state can
// be attributed without decrypting. The first key id identifies the wrapping
// key the decrypt path must resolve.

const (
	envelopeVersion byte = 0x01

	// FlagNoCompression marks an envelope whose plaintext was encrypted as is.
	FlagNoCompression byte = 0x00
	// FlagZstd marks an envelope whose plaintext was zstd compressed first.
	FlagZstd byte = 0x01
)

// Envelope is the ciphertext produced by a tenant encryptor: the opaque
// bytes from the envelope-encryption oracle plus the key ids used, recovered
// from the header on the unwrap path.
type Envelope struct {
	KeyIDs     []string // Key ids used to encrypt; index 0 is the wrapping key
	Flag       byte     // Compression flag applied to the plaintext
	Ciphertext []byte   // Opaque oracle output
}

// WrappingKeyID returns the key id the decrypt path must resolve.
func (e *Envelope) WrappingKeyID() string {
	return e.KeyIDs[0]
}

// Marshal assembles the wire form of the envelope.
func (e *Envelope) Marshal() []byte {
	size := 3
	for _, keyID := range e.KeyIDs {
		size += 1 + len(keyID)
	}
	size += len(e.Ciphertext)

	out := make([]byte, 0, size)
	out = append(out, envelopeVersion, e.Flag, byte(len(e.KeyIDs)))
	for _, keyID := range e.KeyIDs {
		out = append(out, byte(len(keyID)))
		out = append(out, keyID...)
	}
	out = append(out, e.Ciphertext...)
	return out
}

// UnmarshalEnvelope parses the wire form back into an Envelope.
// Returns ErrInvalidEnvelope for truncated or malformed input.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	if len(data) < 4 {
		return nil, ErrInvalidEnvelope
	}
	if data[0] != envelopeVersion {
		return nil, ErrInvalidEnvelope
	}
	flag := data[1]
	if flag != FlagNoCompression && flag != FlagZstd {
		return nil, ErrInvalidEnvelope
	}

	keyCount := int(data[2])
	if keyCount == 0 {
		return nil, ErrInvalidEnvelope
	}

	offset := 3
	keyIDs := make([]string, 0, keyCount)
	for i := 0; i < keyCount; i++ {
		if offset >= len(data) {
			return nil, ErrInvalidEnvelope
		}
		keyIDLen := int(data[offset])
		offset++
		if keyIDLen == 0 || offset+keyIDLen > len(data) {
			return nil, ErrInvalidEnvelope
		}
		keyIDs = append(keyIDs, string(data[offset:offset+keyIDLen]))
		offset += keyIDLen
	}

	if offset >= len(data) {
		return nil, ErrInvalidEnvelope
	}

	return &Envelope{
		KeyIDs:     keyIDs,
		Flag:       flag,
		Ciphertext: data[offset:],
	}, nil
}
