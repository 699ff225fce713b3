package http

import (
	apperrors "barhop/pkg/errors"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrEmptyBody = errors.New("request body is empty")

// ReadBody returns the raw request body. An oversize body comes back as a ready-made
// 413 AppError; other failures are returned as-is so the caller can classify them
// for its operation.
func ReadBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, ErrEmptyBody
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.New(apperrors.CodeInvalidInput,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
				http.StatusRequestEntityTooLarge)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}
	return data, nil
}

func DecodeJSON(r *http.Request, target any) error {
	data, err := ReadBody(r)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
