package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type bindingPayload struct {
	Shortcut string  `json:"shortcut" validate:"required,shortcut"`
	Template string  `json:"template" validate:"required"`
	Category string  `json:"category,omitempty" validate:"max=10"`
	GroupID  *string `json:"groupId" validate:"omitempty,uuid"`
	Tier     string  `validate:"omitempty,oneof=standard gold platinum"`
}

func TestValidateStructAcceptsValidPayload(t *testing.T) {
	payload := bindingPayload{Shortcut: "Ctrl+Shift+W", Template: "Wound assessment", Category: "Wounds"}
	require.NoError(t, ValidateStruct(payload))
}

func TestValidateStructReportsJSONNamesAndMessages(t *testing.T) {
	group := "not-a-uuid"
	err := ValidateStruct(bindingPayload{
		Shortcut: "Ctrl+ +W",
		Category: "Very long category",
		GroupID:  &group,
		Tier:     "bronze",
	})

	var failures FieldErrors
	require.ErrorAs(t, err, &failures)
	require.Equal(t, FieldErrors{
		{Field: "shortcut", Tag: "shortcut"},
		{Field: "template", Tag: "required"},
		{Field: "category", Tag: "max", Param: "10"},
		{Field: "groupId", Tag: "uuid"},
		{Field: "Tier", Tag: "oneof", Param: "standard gold platinum"},
	}, failures)
	require.Equal(t,
		"shortcut must be a key chord such as Ctrl+Shift+W; template is required; "+
			"category must be at most 10 characters; groupId must be a valid UUID; "+
			"Tier must be one of: standard, gold, platinum",
		err.Error())
}

func TestValidateStructRejectsNonStruct(t *testing.T) {
	err := ValidateStruct("ctrl+w")
	require.Error(t, err)
	require.NotErrorAs(t, err, new(FieldErrors))
}

func TestFieldErrorFallbackMessage(t *testing.T) {
	require.Equal(t, "note failed validation: alphanum", FieldError{Field: "note", Tag: "alphanum"}.Message())
	require.Equal(t, "note failed validation: len=4", FieldError{Field: "note", Tag: "len", Param: "4"}.Message())
	require.Equal(t, "validation failed", FieldErrors{}.Error())
}

func TestIsShortcut(t *testing.T) {
	cases := map[string]bool{
		"Ctrl+Shift+W": true,
		"Ctrl+P":       true,
		"F2":           true,
		"":             false,
		"Ctrl++":       false,
		"+W":           false,
		"Ctrl+Sh ift":  false,
	}
	cases["Ctrl+"+strings.Repeat("K", maxShortcutLength)] = false
	for input, want := range cases {
		require.Equal(t, want, IsShortcut(input), "IsShortcut(%q)", input)
	}
}
