package diag

import (
	jsp "github.com/buger/jsonparser"
)

// ParseWidth pulls the "width" field out of a raw JSON config blob (e.g. a
// framing stanza loaded from a config file) for framing.LengthPrefixed,
// using buger/jsonparser directly rather than a struct-tag reflection
// dependency the teacher never reaches for either.
func ParseWidth(configJSON []byte) (int, error) {
	v, err := jsp.GetInt(configJSON, "width")
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
