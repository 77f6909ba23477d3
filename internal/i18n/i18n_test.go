// ABOUTME: Tests for locale detection and message catalogs.
// ABOUTME: Checks POSIX locale parsing, fallback, and that every catalog has every key.
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "en"},
		{"C", "en"},
		{"POSIX", "en"},
		{"en_US.UTF-8", "en"},
		{"ja_JP.UTF-8", "ja"},
		{"ja", "ja"},
		{"zh_CN.UTF-8", "zh"},
		{"zh-TW", "zh"},
		{"fr_FR.UTF-8", "en"},
		{"not a locale!", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.in))
		})
	}
}

func TestCatalog(t *testing.T) {
	ja, err := New("ja_JP.UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "ja", ja.Lang())
	assert.Equal(t, "休日", ja.T("holiday"))
	assert.Equal(t, "平日", ja.T("workday"))
	assert.Equal(t, "no_such_key", ja.T("no_such_key"))

	en, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "holiday", en.T("holiday"))
	assert.Equal(t, "2 of 3 rows imported", en.Tf("imported", 2, 3))
	assert.Equal(t, "3 件中 2 件のレコードを追加しました", ja.Tf("imported", 2, 3))
}

func TestCatalogFallsBackToEnglish(t *testing.T) {
	c, err := New("zh")
	require.NoError(t, err)
	delete(c.texts, "title")
	assert.Equal(t, "Blood Pressure Log", c.T("title"))
}

func TestCatalogsComplete(t *testing.T) {
	en, err := load(DefaultLang)
	require.NoError(t, err)

	for _, code := range Supported() {
		texts, err := load(code)
		require.NoError(t, err, code)
		for key := range en {
			assert.Contains(t, texts, key, "%s catalog is missing %q", code, key)
		}
	}
}
