package i18n

import (
	"testing"

	"github.com/pointofvision/server/internal/vision"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		in   string
		want language.Tag
	}{
		{"en", language.English},
		{"en-GB", language.English},
		{"zh-Hant", language.TraditionalChinese},
		{"zh-TW", language.TraditionalChinese},
		{"not a tag!", language.English},
		{"", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.in))
		})
	}
}

func TestModeLabel(t *testing.T) {
	en := NewPrinter("en")
	assert.Equal(t, "Center", en.ModeLabel(vision.ModeCenter))
	assert.Equal(t, "All Corners + Center", en.ModeLabel(vision.ModeAllCornersAndCenter))
	assert.Equal(t, "All Midpoints + Center", en.ModeLabel(vision.ModeAllMidsAndCenter))
	assert.Equal(t, "mode(42)", en.ModeLabel(vision.Mode(42)))

	zh := NewPrinter("zh-Hant")
	assert.Equal(t, "右上角", zh.ModeLabel(vision.ModeTopRight))
	assert.Equal(t, "四角 + 中心", zh.ModeLabel(vision.ModeAllCornersAndCenter))
}

func TestEveryModeHasLabels(t *testing.T) {
	for _, tag := range Supported {
		p := NewPrinter(tag.String())
		for m := vision.ModeCenter; m <= vision.ModeAllMidsAndCenter; m++ {
			assert.NotEqual(t, OptionKey(int(m)), p.ModeLabel(m), "%s missing %s", tag, m)
		}
	}
}

func TestTextWithArgs(t *testing.T) {
	en := NewPrinter("en")
	assert.Equal(t, "Default (Center)", en.Text(KeyDefaultChoice, en.ModeLabel(vision.ModeCenter)))
	assert.Equal(t, "Center (Foundry Default)", en.Text(KeyHostDefault, "Center"))

	zh := NewPrinter("zh-Hant")
	assert.Equal(t, "預設（中心）", zh.Text(KeyDefaultChoice, zh.ModeLabel(vision.ModeCenter)))
}
