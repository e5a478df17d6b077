package structprovider

import (
	"testing"

	"github.com/isty2e/identedit/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolvesGoByExtension(t *testing.T) {
	r := NewRegistry(nil)
	p, err := r.ProviderFor("main.go")
	require.NoError(t, err)
	assert.Equal(t, "go", p.Lang())
}

func TestRegistryFallsBackToFallbackForUnknownExtension(t *testing.T) {
	r := NewRegistry(nil)
	p, err := r.ProviderFor("script.weird")
	require.NoError(t, err)
	assert.Equal(t, "fallback", p.Lang())
}

func TestHeaderProviderPrefersCppOnAmbiguousHeader(t *testing.T) {
	r := NewRegistry(nil)
	p, err := r.ProviderFor("widget.h")
	require.NoError(t, err)
	assert.Equal(t, "c/c++ header", p.Lang())

	nodes, err := p.Parse([]byte("class Widget { void run(); };\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, nodes)
}

func TestJSONProviderPropagatesParentKeyAsName(t *testing.T) {
	p := jsonProvider{}
	nodes, err := p.Parse([]byte(`{"name": "value", "count": 1}`))
	require.NoError(t, err)

	var sawName bool
	for _, n := range nodes {
		if n.Kind == "string" && n.Name == "name" && n.Text == "value" {
			sawName = true
		}
	}
	assert.True(t, sawName)
}

func TestFallbackFindsPythonDefByIndentationBoundary(t *testing.T) {
	p := fallbackProvider{}
	source := "def greet(name):\n    print(name)\n    return None\n\nx = 1\n"
	nodes, err := p.Parse([]byte(source))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "greet", nodes[0].Name)
	assert.Equal(t, "function", nodes[0].Kind)
}

func TestFallbackFindsBraceFunctionBoundary(t *testing.T) {
	p := fallbackProvider{}
	source := "function add(a, b) {\n  return a + b;\n}\n"
	nodes, err := p.Parse([]byte(source))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "add", nodes[0].Name)
}

func TestFallbackIgnoresHeaderKeywordInsideString(t *testing.T) {
	p := fallbackProvider{}
	source := "msg = \"class Example:\"\ndef greet(name):\n    print(name)\n    return None\n"
	nodes, err := p.Parse([]byte(source))
	require.NoError(t, err)
	require.Len(t, nodes, 1, "the quoted 'class ' text must not be parsed as a class header")
	assert.Equal(t, "greet", nodes[0].Name)
	assert.Equal(t, "function", nodes[0].Kind)
}

func TestFallbackNeverRejects(t *testing.T) {
	p := fallbackProvider{}
	_, err := p.Parse([]byte("not code at all, just prose.\n"))
	require.NoError(t, err)
}

func TestFallbackRejectsNonUTF8(t *testing.T) {
	p := fallbackProvider{}
	_, err := p.Parse([]byte{0xff, 0xfe, 0x00})
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.ParseFailure, appErr.Code)
}

func TestNoProviderListsSupportedExtensions(t *testing.T) {
	r := &Registry{} // deliberately empty: no fallback configured
	_, err := r.ProviderFor("mystery.xyz")
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.NoProvider, appErr.Code)
}
