package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidPinHash         = errors.New("invalid pin hash format")
	ErrIncompatiblePinVersion = errors.New("incompatible pin hash version")
)

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// CreatePinHash derives an argon2id hash for the admin PIN. The hash is what
// gets provisioned to the server; the PIN itself never appears in
// configuration or client-observable state.
func CreatePinHash(pin string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(pin), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// Format is $argon2id$v=19$m=...,t=...,p=...$salt$hash
	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	return fmt.Sprintf(format, argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Hash), nil
}

// PinVerifier compares a stored hash with a candidate PIN.
type PinVerifier func(hashedPin, pin string) error

// VerifyPin checks a candidate PIN against a stored argon2id hash using a
// constant-time comparison. A mismatch is reported as ErrPermissionDenied;
// any other error means the stored hash itself is unusable.
func VerifyPin(hashedPin, pin string) error {
	params, salt, decodedHash, err := parsePinHash(hashedPin)
	if err != nil {
		return err
	}

	comparisonHash := argon2.IDKey([]byte(pin), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	if subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1 {
		return nil
	}

	return ErrPermissionDenied
}

// ValidatePinHash checks that a provisioned hash can be verified against
// without deriving a key. Callers use it to tell a broken deployment apart
// from a wrong guess.
func ValidatePinHash(hashedPin string) error {
	_, _, _, err := parsePinHash(hashedPin)
	return err
}

func parsePinHash(hashedPin string) (Argon2idParams, []byte, []byte, error) {
	var params Argon2idParams

	parts := strings.Split(hashedPin, "$")
	if len(parts) != 6 {
		return params, nil, nil, ErrInvalidPinHash
	}

	if parts[1] != "argon2id" {
		return params, nil, nil, ErrInvalidPinHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, err
	}
	if version != argon2.Version {
		return params, nil, nil, ErrIncompatiblePinVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, err
	}
	params.SaltLength = uint32(len(salt))

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, err
	}
	params.KeyLength = uint32(len(decodedHash))

	return params, salt, decodedHash, nil
}
