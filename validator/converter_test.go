package validator

import (
	"errors"
	"testing"

	"github.com/KOMKZ/go-yogan-feed/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentForm struct {
	Body  string
	Limit int
}

func (f commentForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Body, validation.Required),
		validation.Field(&f.Limit, validation.Min(1), validation.Max(100)),
	)
}

type plainErr struct{ err error }

func (p plainErr) Validate() error { return p.err }

func TestValidateRequest_Valid(t *testing.T) {
	assert.NoError(t, ValidateRequest(commentForm{Body: "hi", Limit: 10}))
}

func TestValidateRequest_FieldErrors(t *testing.T) {
	err := ValidateRequest(commentForm{Limit: 500})
	require.Error(t, err)

	var le *errcode.LayeredError
	require.True(t, errors.As(err, &le))
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, 101010, le.Code())
	assert.Equal(t, 400, le.HTTPStatus())
	assert.Equal(t, "common", le.Module())

	fields, ok := le.Data()["fields"].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "Body")
	assert.Contains(t, fields, "Limit")
}

func TestValidateRequest_OtherErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	err := ValidateRequest(plainErr{err: boom})
	assert.Same(t, boom, err)
}

func TestConvertValidationError_SkipsNilEntries(t *testing.T) {
	le := ConvertValidationError(validation.Errors{"a": errors.New("bad"), "b": nil})
	fields := le.Data()["fields"].(map[string]string)
	assert.Equal(t, map[string]string{"a": "bad"}, fields)
}

func TestConvertValidationError_FlattensNested(t *testing.T) {
	le := ConvertValidationError(validation.Errors{
		"paging": validation.Errors{"limit": errors.New("must be no greater than 100")},
		"title":  errors.New("cannot be blank"),
	})
	fields := le.Data()["fields"].(map[string]string)
	assert.Equal(t, map[string]string{
		"paging.limit": "must be no greater than 100",
		"title":        "cannot be blank",
	}, fields)
}
