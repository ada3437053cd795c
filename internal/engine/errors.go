package engine

import "errors"

// Error taxonomy shared by the fetch and answering pipelines.
// InvalidInput and Extraction are terminal for the current operation;
// Navigation and Answering degrade to a substitute value.
var (
	ErrInvalidInput       = errors.New("invalid video URL")
	ErrSessionAcquisition = errors.New("browser session acquisition failed")
	ErrNavigation         = errors.New("page navigation failed")
	ErrExtraction         = errors.New("no transcript available")
	ErrAnswering          = errors.New("completion request failed")
)
