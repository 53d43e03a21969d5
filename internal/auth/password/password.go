// Package password hashes staff and admin passwords with Argon2id and stores
// them in the PHC string form "$argon2id$v=19$m=..,t=..,p=..$salt$key".
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	scheme      = "argon2id"
	saltLen     = 16
	derivedLen  = 32
	phcSegments = 6
)

var errMalformed = errors.New("malformed password hash")

// cost holds the Argon2id tuning recorded alongside every stored hash, so
// accounts created under older settings keep verifying after a change.
type cost struct {
	memoryKiB uint32
	passes    uint32
	lanes     uint8
}

var accountCost = cost{memoryKiB: 64 * 1024, passes: 1, lanes: 4}

func (c cost) String() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", c.memoryKiB, c.passes, c.lanes)
}

func (c cost) derive(pass string, salt []byte, keyLen uint32) []byte {
	return argon2.IDKey([]byte(pass), salt, c.passes, c.memoryKiB, c.lanes, keyLen)
}

// Hash salts and hashes a portal account password.
func Hash(pass string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read password salt: %w", err)
	}
	key := accountCost.derive(pass, salt, derivedLen)

	enc := base64.RawStdEncoding
	return fmt.Sprintf("$%s$v=%d$%s$%s$%s",
		scheme, argon2.Version, accountCost, enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

// Verify reports whether pass matches a hash produced by Hash. Malformed
// hashes never match.
func Verify(pass, stored string) bool {
	c, salt, key, err := decode(stored)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(key, c.derive(pass, salt, uint32(len(key)))) == 1
}

func decode(stored string) (cost, []byte, []byte, error) {
	segs := strings.Split(stored, "$")
	if len(segs) != phcSegments || segs[1] != scheme || segs[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return cost{}, nil, nil, errMalformed
	}
	c, err := parseCost(segs[3])
	if err != nil {
		return cost{}, nil, nil, err
	}
	salt, err := base64.RawStdEncoding.DecodeString(segs[4])
	if err != nil {
		return cost{}, nil, nil, errMalformed
	}
	key, err := base64.RawStdEncoding.DecodeString(segs[5])
	if err != nil || len(key) == 0 {
		return cost{}, nil, nil, errMalformed
	}
	return c, salt, key, nil
}

func parseCost(raw string) (cost, error) {
	fields := strings.Split(raw, ",")
	if len(fields) != 3 {
		return cost{}, errMalformed
	}
	values := make([]uint64, len(fields))
	for i, prefix := range []string{"m=", "t=", "p="} {
		digits, ok := strings.CutPrefix(fields[i], prefix)
		if !ok {
			return cost{}, errMalformed
		}
		bits := 32
		if prefix == "p=" {
			bits = 8
		}
		v, err := strconv.ParseUint(digits, 10, bits)
		if err != nil {
			return cost{}, errMalformed
		}
		values[i] = v
	}
	return cost{memoryKiB: uint32(values[0]), passes: uint32(values[1]), lanes: uint8(values[2])}, nil
}
