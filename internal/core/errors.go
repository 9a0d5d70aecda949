package core

import (
	"errors"
)

// Error taxonomy for the triage pipeline. Handlers map these to HTTP status
// codes with errors.Is; adapters wrap them with provider detail.
var (
	// ErrEmptyContent indicates no usable email text was supplied.
	ErrEmptyContent = errors.New("no email content provided")

	// ErrEncoding indicates an uploaded .txt file was not valid UTF-8.
	ErrEncoding = errors.New("file is not valid UTF-8")

	// ErrExtraction indicates an uploaded file could not be read at all.
	ErrExtraction = errors.New("failed to extract text from file")

	// ErrModelUnavailable indicates the model is unconfigured, unreachable,
	// or timed out. Never retried.
	ErrModelUnavailable = errors.New("classification model unavailable")

	// ErrGenerationHalted indicates the provider refused generation for
	// safety or policy reasons.
	ErrGenerationHalted = errors.New("model halted generation")

	// ErrInvalidModelOutput indicates the model reply could not be parsed
	// as a classification object.
	ErrInvalidModelOutput = errors.New("model output is not valid JSON")

	// ErrStorage indicates a history store failure.
	ErrStorage = errors.New("history storage failure")
)
