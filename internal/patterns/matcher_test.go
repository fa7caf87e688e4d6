package patterns

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{name: "star suffix", pattern: "*.csv", path: "/in/a.csv", want: true},
		{name: "other extension", pattern: "*.csv", path: "/in/a.txt", want: false},
		{name: "question mark", pattern: "f?.dat", path: "/in/f1.dat", want: true},
		{name: "question mark too long", pattern: "f?.dat", path: "/in/f12.dat", want: false},
		{name: "char class", pattern: "report_[0-9].xml", path: "/in/report_7.xml", want: true},
		{name: "negated class", pattern: "report_[!0-9].xml", path: "/in/report_7.xml", want: false},
		{name: "base name only", pattern: "in*", path: "/in/data.csv", want: false},
		{name: "relative path", pattern: "*.dat", path: "f.dat", want: true},
		{name: "braces are literal", pattern: "{a,b}.txt", path: "/in/{a,b}.txt", want: true},
		{name: "braces do not alternate", pattern: "{a,b}.txt", path: "/in/a.txt", want: false},
		{name: "backslash is literal", pattern: `x\*.dat`, path: `/in/x\y.dat`, want: true},
		{name: "brace inside class", pattern: "[{]*.dat", path: "/in/{1.dat", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := compile(tt.pattern, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Match(filepath.FromSlash(tt.path)))
		})
	}
}

func TestMatcher_CaseFolding(t *testing.T) {
	sensitive, err := compile("*.csv", false)
	require.NoError(t, err)
	assert.True(t, sensitive.Match("a.csv"))
	assert.False(t, sensitive.Match("a.CSV"))

	folding, err := compile("*.csv", true)
	require.NoError(t, err)
	assert.True(t, folding.Match("a.csv"))
	assert.True(t, folding.Match("a.CSV"))
	assert.False(t, folding.Match("a.txt"))
}

func TestCompile_HostCaseSensitivity(t *testing.T) {
	m, err := Compile("*.csv")
	require.NoError(t, err)
	assert.Equal(t, hostFoldsCase(), m.Match("a.CSV"))
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("   ")
	assert.ErrorIs(t, err, ErrEmptyPattern)

	_, err = Compile("[a-")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
