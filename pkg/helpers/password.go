package helpers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Passwords are hashed with argon2id and stored as PHC strings, e.g.
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
// argon2id accepts input of any length, so no truncation of the raw
// password bytes happens anywhere on the hash or verify path.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

var errMalformedHash = errors.New("malformed password hash")

// HashPassword hashes the plain text password using argon2id.
func HashPassword(plain string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether plain matches the stored argon2id hash.
// Comparison is constant-time.
func VerifyPassword(encoded, plain string) bool {
	salt, key, memory, timeCost, threads, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(plain), salt, timeCost, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

func decodeHash(encoded string) (salt, key []byte, memory, timeCost uint32, threads uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, errMalformedHash
	}
	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, 0, 0, 0, errMalformedHash
	}
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return nil, nil, 0, 0, 0, errMalformedHash
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, 0, 0, 0, errMalformedHash
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, 0, 0, 0, errMalformedHash
	}
	return salt, key, memory, timeCost, threads, nil
}
