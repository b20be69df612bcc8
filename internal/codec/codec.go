// Package codec is the persistence encoding of document descriptions:
// deterministic CBOR plus a BLAKE3 fingerprint over it.
package codec

import (
	"encoding/hex"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/aretw0/quire/pkg/domain"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2): equal
// descriptions always encode to identical bytes.
var encMode cbor.EncMode

// decMode decodes untyped maps as map[string]any, the shape props use.
var decMode cbor.DecMode

func init() {
	var err error
	encOptions := cbor.CoreDetEncOptions()
	// Kinds travel as their tag names.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to deterministic CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodeElement encodes a description. Callbacks are not encoded.
func EncodeElement(e domain.Element) ([]byte, error) {
	data, err := Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// DecodeElement is the inverse of EncodeElement.
func DecodeElement(data []byte) (domain.Element, error) {
	var e domain.Element
	if err := Unmarshal(data, &e); err != nil {
		return domain.Element{}, fmt.Errorf("decode document: %w", err)
	}
	return e, nil
}

// fingerprintKey separates document fingerprints from any other BLAKE3
// use of the same bytes.
var fingerprintKey = [32]byte{
	'q', 'u', 'i', 'r', 'e', '.', 'd', 'o', 'c', 'u', 'm', 'e', 'n', 't',
}

// Fingerprint returns the hex keyed BLAKE3 digest of the encoded description.
// Two descriptions share a fingerprint exactly when they encode identically.
func Fingerprint(e domain.Element) (string, error) {
	data, err := EncodeElement(e)
	if err != nil {
		return "", err
	}
	h, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		panic("codec: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
