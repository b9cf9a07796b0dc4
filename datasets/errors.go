package datasets

import "errors"

var (
	// ErrInvalidCountry is returned for a country other than kenya or peru.
	ErrInvalidCountry = errors.New("country must be either 'kenya' or 'peru'")

	// ErrNotImplemented is returned for pipelines that have no implementation
	// yet, such as masking for Peru or models without pretrained weights.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrSampleTooLarge is returned when sampling without replacement asks for
	// more rows than are available.
	ErrSampleTooLarge = errors.New("cannot take a larger sample than population")

	// ErrUnknownClass is returned when a raw class is missing from the class
	// enumeration.
	ErrUnknownClass = errors.New("class not in class enumeration")

	// ErrEmptyGenerator is returned by Next on a generator without rows.
	ErrEmptyGenerator = errors.New("generator has no rows")
)
