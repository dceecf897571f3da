package masking

import (
	"net/http"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rule(path, regex, replace string) Rule {
	return Rule{Path: path, Regex: MustPattern(regex), Replace: replace}
}

func TestJSON(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		rules []Rule
		want  string
	}{
		{
			name:  "top level key",
			body:  `{"token":"abc123","user":"bob"}`,
			rules: []Rule{rule("$.token", "[a-z0-9]", "*")},
			want:  `{"token":"******","user":"bob"}`,
		},
		{
			name:  "nested key with bracket notation",
			body:  `{"auth":{"api.key":"secret"}}`,
			rules: []Rule{rule("$.auth['api.key']", ".+", "[redacted]")},
			want:  `{"auth":{"api.key":"[redacted]"}}`,
		},
		{
			name:  "array wildcard",
			body:  `{"users":[{"email":"a@x.io"},{"email":"b@y.io"}]}`,
			rules: []Rule{rule("$.users[*].email", "^[^@]+", "***")},
			want:  `{"users":[{"email":"***@x.io"},{"email":"***@y.io"}]}`,
		},
		{
			name:  "object wildcard",
			body:  `{"keys":{"a":"111","b":"222"}}`,
			rules: []Rule{rule("$.keys.*", "\\d", "0")},
			want:  `{"keys":{"a":"000","b":"000"}}`,
		},
		{
			name:  "index",
			body:  `["one","two"]`,
			rules: []Rule{rule("$[1]", "two", "2")},
			want:  `["one","2"]`,
		},
		{
			name:  "non string leaves untouched",
			body:  `{"id":42,"ok":true}`,
			rules: []Rule{rule("$.id", "\\d", "x"), rule("$.ok", ".*", "x")},
			want:  `{"id":42,"ok":true}`,
		},
		{
			name:  "missing path is a no-op",
			body:  `{"a":"b"}`,
			rules: []Rule{rule("$.missing", ".*", "x")},
			want:  `{"a":"b"}`,
		},
		{
			name:  "capture group replacement",
			body:  `{"card":"4111222233334444"}`,
			rules: []Rule{rule("$.card", "^\\d{12}(\\d{4})$", "************$1")},
			want:  `{"card":"************4444"}`,
		},
		{
			name:  "root string",
			body:  `"secret"`,
			rules: []Rule{rule("$", ".", "*")},
			want:  `"******"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSON([]byte(tt.body), tt.rules)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestJSON_DoesNotModifyInput(t *testing.T) {
	body := []byte(`{"token":"abc"}`)
	_, err := JSON(body, []Rule{rule("$.token", ".", "*")})
	require.NoError(t, err)
	assert.Equal(t, `{"token":"abc"}`, string(body))
}

func TestJSON_NonJSONBodyUnchanged(t *testing.T) {
	got, err := JSON([]byte("plain text"), []Rule{rule("$", ".", "*")})
	require.NoError(t, err)
	assert.Equal(t, "plain text", string(got))
}

func TestJSON_InvalidPath(t *testing.T) {
	for _, path := range []string{"token", "$..token", "$[abc]", "$.a[", "$."} {
		t.Run(path, func(t *testing.T) {
			_, err := JSON([]byte(`{"token":"x"}`), []Rule{rule(path, ".", "*")})
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}

func TestHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer abc")
	h.Set("X-Request-Id", "42")

	masked, err := Headers(h, []Rule{rule("$.headers.authorization", "Bearer .*", "Bearer ***")})
	require.NoError(t, err)
	assert.Equal(t, "Bearer ***", masked.Get("Authorization"))
	assert.Equal(t, "42", masked.Get("X-Request-Id"))
	assert.Equal(t, "Bearer abc", h.Get("Authorization"))

	masked, err = Headers(h, []Rule{rule("$", "\\d", "#")})
	require.NoError(t, err)
	assert.Equal(t, "##", masked.Get("X-Request-Id"))
}

func TestRule_DecodeTOML(t *testing.T) {
	var doc struct {
		Rules []Rule `toml:"rules"`
	}
	err := toml.Unmarshal([]byte(`rules = [{ path = "$.token", regex = "[a-z]", replace = "*" }]`), &doc)
	require.NoError(t, err)
	require.Len(t, doc.Rules, 1)
	assert.Equal(t, "$.token", doc.Rules[0].Path)
	assert.Equal(t, "***1", doc.Rules[0].mask("abc1"))

	err = toml.Unmarshal([]byte(`rules = [{ path = "$", regex = "(", replace = "" }]`), &doc)
	assert.Error(t, err)
}
