package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type lookupFunc func(ctx context.Context, id string) (bool, error)

// found adapts a store getter to an existence lookup.
func found[T any](get func(context.Context, string) (T, bool, error)) lookupFunc {
	return func(ctx context.Context, id string) (bool, error) {
		_, ok, err := get(ctx, id)
		return ok, err
	}
}

// exists fails when a non-empty id is unknown to lookup. Lookup failures
// surface as internal errors so they render as 500 instead of 422.
func exists(lookup lookupFunc, message string) validation.Rule {
	return validation.WithContext(func(ctx context.Context, value interface{}) error {
		v, isNil := validation.Indirect(value)
		id, _ := v.(string)
		if isNil || id == "" {
			return nil
		}
		ok, err := lookup(ctx, id)
		if err != nil {
			return validation.NewInternalError(err)
		}
		if !ok {
			return validation.NewError("validation_not_found", message)
		}
		return nil
	})
}

// eachExists applies exists to every id of a []string or *[]string,
// reporting failures by index.
func eachExists(lookup lookupFunc, message string) validation.Rule {
	rule := exists(lookup, message)
	return validation.WithContext(func(ctx context.Context, value interface{}) error {
		var ids []string
		switch v := value.(type) {
		case []string:
			ids = v
		case *[]string:
			if v == nil {
				return nil
			}
			ids = *v
		default:
			return nil
		}
		errs := validation.Errors{}
		for i, id := range ids {
			if id == "" {
				errs[strconv.Itoa(i)] = validation.ErrRequired
				continue
			}
			if err := validation.ValidateWithContext(ctx, id, rule); err != nil {
				var internal validation.InternalError
				if errors.As(err, &internal) {
					return err
				}
				errs[strconv.Itoa(i)] = err
			}
		}
		if len(errs) == 0 {
			return nil
		}
		return errs
	})
}

// decodeAndValidate decodes the body into req and runs its rules, writing
// the error response itself when either step fails.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req validation.ValidatableWithContext) bool {
	if !decodeJSON(w, r, req) {
		return false
	}
	return h.checkValid(w, r, req.ValidateWithContext(r.Context()))
}

func (h *Handler) checkValid(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return true
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		h.writeStoreError(w, r, internal.InternalError())
		return false
	}
	fields := map[string]string{}
	var errs validation.Errors
	if errors.As(err, &errs) {
		flattenErrors("", errs, fields)
	} else {
		fields["body"] = err.Error()
	}
	writeValidationError(w, r, fields)
	return false
}

func flattenErrors(prefix string, errs validation.Errors, out map[string]string) {
	for field, err := range errs {
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flattenErrors(key, nested, out)
			continue
		}
		out[key] = err.Error()
	}
}
