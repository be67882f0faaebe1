package gqlserver

import (
	"errors"

	"go.uber.org/zap"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/validate"
)

// Error is returned from resolvers. graphql-go copies Extensions into the
// response, so every error carries extensions.code.
type Error struct {
	Message string
	Code    string
	Fields  []validate.FieldError
}

func (e *Error) Error() string { return e.Message }

// Extensions implements gqlerrors.ExtendedError.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code}
	if len(e.Fields) > 0 {
		ext["errors"] = e.Fields
	}
	return ext
}

// toError maps a domain error to its client form. Internal failures are
// logged and reported with the generic message.
func toError(err error, log *zap.Logger) error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	if fields, ok := validate.Fields(err); ok {
		return &Error{
			Message: errs.DefaultMessage(errs.CodeValidationFailed),
			Code:    errs.CodeValidationFailed,
			Fields:  fields,
		}
	}
	code := errs.Code(err)
	if code == errs.CodeInternal {
		log.Error("graphql resolver failed", zap.Error(err))
	}
	return &Error{Message: errs.PublicMessage(err), Code: code}
}
