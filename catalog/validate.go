package catalog

import (
	"github.com/go-playground/validator/v10"

	"github.com/discograf/discograf/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkRequest validates a request payload before it goes on the wire.
// Violations come back as a 422 with per-field metadata so forms can show
// inline feedback instead of a raw error.
func checkRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, 422, "invalid request")
	}

	meta := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		meta[fe.Field()] = fe.Tag()
	}

	return errors.UnprocessableEntity("validation failed").WithMetadata(meta)
}
