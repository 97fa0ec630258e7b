package connector

import (
	"encoding/json"
	"errors"

	"github.com/rickgao/explorer-data/internal/model"
)

// classify maps an api client error to the connector taxonomy. A body that
// is not valid JSON for the envelope is a schema problem; everything else
// (transport, timeout, status, upstream-reported errors) is a fetch failure.
func classify(source model.Source, err error) error {
	var (
		de        *DecodeError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &de):
		return err
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return &DecodeError{Source: source, Err: err}
	default:
		return fetchErr(source, err)
	}
}
