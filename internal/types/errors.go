package types

import "errors"

// Sentinel errors for blockvis operations.
var (
	// ErrBlockNotFound indicates no block exists with the given ID for the tenant.
	ErrBlockNotFound = errors.New("block not found")

	// ErrRevisionConflict indicates the block changed between read and write.
	ErrRevisionConflict = errors.New("block revision conflict")

	// ErrInvalidAttributes indicates an attribute bag is not a JSON object.
	ErrInvalidAttributes = errors.New("attributes must be a JSON object")

	// ErrAttributesTooLarge indicates the encoded bag exceeds MaxAttributesSize.
	ErrAttributesTooLarge = errors.New("attributes exceed maximum size")

	// ErrMalformedRuleSet indicates a rule set field had the wrong type and
	// was replaced by its schema default. Reported, never fatal.
	ErrMalformedRuleSet = errors.New("malformed rule set")

	// ErrMissingFieldID indicates a custom-field identifier was empty.
	ErrMissingFieldID = errors.New("field id required")

	// ErrFieldIDTooLong indicates a custom-field identifier exceeds MaxFieldIDLength.
	ErrFieldIDTooLong = errors.New("field id too long")

	// ErrFieldValueTooLong indicates a custom-field value exceeds MaxFieldValueLength.
	ErrFieldValueTooLong = errors.New("field value too long")

	// ErrMissingBlockType indicates a block was created without a type name.
	ErrMissingBlockType = errors.New("block type required")

	// ErrMissingDocument indicates a document ID was required but empty.
	ErrMissingDocument = errors.New("document id required")
)
