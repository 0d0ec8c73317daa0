package tantivy

import "encoding/binary"

// FieldID is a stable identifier into the schema, 0-255.
type FieldID = uint8

// DocID is a segment-local document identifier, assigned in insertion
// order starting at 0.
type DocID = uint32

// Term is the opaque lexicographic key identifying a (field,
// token-or-number) pair: the first byte is the field id, the remainder is
// either UTF-8 token text or a 4-byte big-endian uint32.
type Term []byte

// TextTerm builds the term for a tokenized or untokenized text value.
func TextTerm(field FieldID, token string) Term {
	t := make(Term, 1+len(token))
	t[0] = field
	copy(t[1:], token)
	return t
}

// U32Term builds the term for an indexed uint32 field value, as
// [field_id | big-endian value].
func U32Term(field FieldID, value uint32) Term {
	t := make(Term, 5)
	t[0] = field
	binary.BigEndian.PutUint32(t[1:], value)
	return t
}

// Field returns the field id encoded in the term's first byte.
func (t Term) Field() FieldID {
	if len(t) == 0 {
		return 0
	}
	return t[0]
}

// Payload returns the bytes following the field id: UTF-8 text, or a
// 4-byte big-endian uint32 for a U32 term.
func (t Term) Payload() []byte {
	if len(t) <= 1 {
		return nil
	}
	return t[1:]
}
