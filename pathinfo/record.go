/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package pathinfo holds the rendezvous record (IPCPathInfo) that a server
// writes and a client reads to learn where and how to connect: the random
// key, the protocol/product versions, and the writer's pid/tid. It also
// derives the platform rendezvous address from a loaded record and a
// service name.
package pathinfo

import (
	"fmt"
	"regexp"

	"github.com/fxamacker/cbor/v2"

	enchex "github.com/nabbar/ipc-core/encoding/hexa"
)

// ProtocolVersion is the build-time wire protocol constant. It is bumped on
// wire-incompatible changes; clients and servers compare it for equality,
// never for ordering, except inside the controller's restart decision.
const ProtocolVersion = 3

// keyPattern is the sole validity rule for a loaded key: exactly 32
// lowercase hex digits. Anything else makes the record unusable.
var keyPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ProductVersion is a dotted four-part version of the producing binary,
// compared lexicographically component by component.
type ProductVersion [4]uint32

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// o, comparing components left to right (major.minor.patch.build).
func (v ProductVersion) Compare(o ProductVersion) int {
	for i := 0; i < 4; i++ {
		if v[i] < o[i] {
			return -1
		}
		if v[i] > o[i] {
			return 1
		}
	}
	return 0
}

func (v ProductVersion) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v[0], v[1], v[2], v[3])
}

// Record is the serialized rendezvous payload: IPCPathInfo in spec terms.
type Record struct {
	Key             string         `cbor:"1,keyasint"`
	ProtocolVersion int            `cbor:"2,keyasint"`
	ProductVersion  ProductVersion `cbor:"3,keyasint"`
	ProcessID       int            `cbor:"4,keyasint"`
	ThreadID        int            `cbor:"5,keyasint"`
}

// ValidKey reports whether s satisfies the "exactly 32 lowercase hex
// digits" predicate required of any loaded record's Key.
func ValidKey(s string) bool {
	return keyPattern.MatchString(s)
}

// Marshal serializes r as a compact CBOR payload. The wire budget in
// spec.md (~2 KiB) is generous for this record; CBOR keeps it well under
// that even with the field-integer-key encoding enabled above.
func Marshal(r Record) ([]byte, error) {
	return cbor.Marshal(r)
}

// Unmarshal decodes a Record and validates its Key. A record whose key
// fails ValidKey is rejected outright: the caller gets ErrInvalidKey, not
// a record they might use anyway.
func Unmarshal(b []byte) (Record, error) {
	var r Record
	if err := cbor.Unmarshal(b, &r); err != nil {
		return Record{}, fmt.Errorf("pathinfo: decode record: %w", err)
	}
	if !ValidKey(r.Key) {
		return Record{}, ErrInvalidKey
	}
	return r, nil
}

// ErrInvalidKey is returned by Unmarshal when the decoded key is not
// exactly 32 lowercase hex characters.
var ErrInvalidKey = fmt.Errorf("pathinfo: key is not 32 lowercase hex characters")

// EncodeKey renders raw key bytes (16 bytes of entropy, or a truncated
// SHA-1 digest) as the lowercase hex string stored in Record.Key.
func EncodeKey(raw []byte) string {
	return string(enchex.New().Encode(raw))
}
