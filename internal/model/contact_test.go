package model

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStringUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want FlexString
	}{
		{"string", `{"edad":"21"}`, "21"},
		{"integer", `{"edad":21}`, "21"},
		{"float", `{"edad":21.5}`, "21.5"},
		{"null", `{"edad":null}`, ""},
		{"missing", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Contact
			require.NoError(t, sonic.Unmarshal([]byte(tt.raw), &c))
			assert.Equal(t, tt.want, c.Age)
		})
	}

	var c Contact
	assert.Error(t, sonic.Unmarshal([]byte(`{"edad":true}`), &c))
}

func TestContactPatchKeepsClearedFields(t *testing.T) {
	c := Contact{
		ID:    "c1",
		Name:  ContactName{First: "Ana"},
		Phone: "+34 600 123 456",
		Email: "a@example.com",
	}

	body, err := sonic.Marshal(c.Patch())
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, sonic.Unmarshal(body, &got))
	assert.Equal(t, "", got["fnacimiento"])
	assert.Equal(t, "", got["edad"])
	assert.Equal(t, map[string]interface{}{"first": "Ana", "last": ""}, got["name"])
	assert.NotContains(t, got, "_id")

	// 新建请求体仍省略空的可选字段
	body, err = sonic.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "fnacimiento")
	assert.NotContains(t, string(body), "edad")
}
