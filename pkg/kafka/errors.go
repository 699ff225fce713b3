package kafka

import "errors"

var (
	// ErrProducerClosed indicates the producer has been closed
	ErrProducerClosed = errors.New("kafka producer is closed")

	// ErrInvalidMessage indicates a batch contained no publishable message
	ErrInvalidMessage = errors.New("invalid message")

	// ErrEmptyKey indicates the message key is empty
	ErrEmptyKey = errors.New("message key cannot be empty")

	// ErrEmptyValue indicates the message value is empty or failed to encode
	ErrEmptyValue = errors.New("message value cannot be empty")
)
