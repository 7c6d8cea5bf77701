package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  *string `json:"name" validate:"omitempty,max=5"`
	Ref   string  `form:"referenceId" validate:"required"`
	Plain string  `validate:"omitempty,min=2"`
}

func TestValidate_OK(t *testing.T) {
	name := "abc"
	assert.Nil(t, Validate(&sample{Name: &name, Ref: "42"}))
}

func TestValidate_ReportsTagNames(t *testing.T) {
	long := strings.Repeat("x", 6)

	errs := Validate(&sample{Name: &long, Plain: "x"})

	assert.Equal(t, map[string]string{
		"name":        "max",
		"referenceId": "required",
		"Plain":       "min",
	}, errs)
}

func TestValidate_NilPointerIsOptional(t *testing.T) {
	assert.Nil(t, Validate(&sample{Ref: "1"}))
}
