package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherArgs struct {
	Zip      string   `json:"zip"`
	Units    *string  `json:"units,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	internal string
}

func TestFromStructRequiredVsOptional(t *testing.T) {
	s := FromStruct(weatherArgs{})
	require.Contains(t, s.Properties, "zip")
	require.Contains(t, s.Properties, "units")
	require.Contains(t, s.Properties, "tags")
	_, hasInternal := s.Properties["internal"]
	assert.False(t, hasInternal)

	assert.Equal(t, []string{"zip"}, s.Required)
	assert.Equal(t, String, s.Properties["zip"].Type)
	assert.Equal(t, String, s.Properties["units"].Type)
	assert.Equal(t, Array, s.Properties["tags"].Type)
}

func TestFromStructSnakeCasesFieldNames(t *testing.T) {
	type args struct {
		ZipCode string `json:"-"`
		UserID  string
	}
	s := FromStruct(args{})
	assert.NotContains(t, s.Properties, "zip_code")
	assert.Contains(t, s.Properties, "user_id")
}

func TestValidateAcceptsConformingPayload(t *testing.T) {
	s := FromStruct(weatherArgs{})
	err := Validate(s, json.RawMessage(`{"zip":"97209"}`))
	require.NoError(t, err)
}

func TestValidateRejectsMissingRequired(t *testing.T) {
	s := FromStruct(weatherArgs{})
	err := Validate(s, json.RawMessage(`{}`))
	require.Error(t, err)
}
