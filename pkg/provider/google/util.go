package google

import (
	"errors"
	"fmt"

	"google.golang.org/genai"
)

func convertError(err error) error {
	var apierr genai.APIError

	if errors.As(err, &apierr) {
		return fmt.Errorf("google: %s", apierr.Message)
	}

	return err
}
