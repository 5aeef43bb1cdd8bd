// Package i18n holds the localized labels for sampling modes and the token
// configuration form.
package i18n

import (
	"strconv"

	"github.com/pointofvision/server/internal/vision"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	KeyWorldDefault     = "pov.default"
	KeyExpandVisibility = "pov.expandVisibility"
	KeyTokenSetting     = "pov.token_setting"
	KeyGroupCorners     = "pov.option.group.corners"
	KeyGroupMidpoints   = "pov.option.group.midpoints"
	KeyDefaultChoice    = "pov.choice.default"
	KeyHostDefault      = "pov.choice.host_default"
)

// Supported lists the catalogs shipped, fallback first.
var Supported = []language.Tag{language.English, language.TraditionalChinese}

var (
	cat     = catalog.NewBuilder(catalog.Fallback(language.English))
	matcher = language.NewMatcher(Supported)
)

var entries = map[language.Tag]map[string]string{
	language.English: {
		KeyWorldDefault:     "Default point of vision",
		KeyExpandVisibility: "Expand visibility checks",
		KeyTokenSetting:     "Point of vision",
		KeyGroupCorners:     "Corners",
		KeyGroupMidpoints:   "Midpoints",
		KeyDefaultChoice:    "Default (%s)",
		KeyHostDefault:      "%s (Foundry Default)",
		OptionKey(0):        "Center",
		OptionKey(1):        "Top Left",
		OptionKey(2):        "Top Right",
		OptionKey(3):        "Bottom Left",
		OptionKey(4):        "Bottom Right",
		OptionKey(5):        "All Corners + Center",
		OptionKey(6):        "Top",
		OptionKey(7):        "Bottom",
		OptionKey(8):        "Left",
		OptionKey(9):        "Right",
		OptionKey(10):       "All Midpoints + Center",
	},
	language.TraditionalChinese: {
		KeyWorldDefault:     "預設視點",
		KeyExpandVisibility: "擴展可見性檢查",
		KeyTokenSetting:     "視點",
		KeyGroupCorners:     "角落",
		KeyGroupMidpoints:   "邊緣中點",
		KeyDefaultChoice:    "預設（%s）",
		KeyHostDefault:      "%s（Foundry 預設）",
		OptionKey(0):        "中心",
		OptionKey(1):        "左上角",
		OptionKey(2):        "右上角",
		OptionKey(3):        "左下角",
		OptionKey(4):        "右下角",
		OptionKey(5):        "四角 + 中心",
		OptionKey(6):        "上緣中點",
		OptionKey(7):        "下緣中點",
		OptionKey(8):        "左緣中點",
		OptionKey(9):        "右緣中點",
		OptionKey(10):       "四邊中點 + 中心",
	},
}

func init() {
	for tag, msgs := range entries {
		for key, msg := range msgs {
			if err := cat.SetString(tag, key, msg); err != nil {
				panic("i18n: " + key + ": " + err.Error())
			}
		}
	}
}

// OptionKey is the catalog key of a sampling mode label.
func OptionKey(code int) string {
	return "pov.option." + strconv.Itoa(code)
}

// Match picks the closest supported language for a BCP 47 tag. Anything
// unparseable falls back to English.
func Match(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return Supported[idx]
}

// Printer renders catalog messages in one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

func NewPrinter(lang string) *Printer {
	tag := Match(lang)
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

func (p *Printer) Tag() language.Tag { return p.tag }

// Text renders key with optional arguments.
func (p *Printer) Text(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}

// ModeLabel is the display name of m. Codes outside the eleven modes render
// as their code name.
func (p *Printer) ModeLabel(m vision.Mode) string {
	if !m.Valid() {
		return m.String()
	}
	return p.p.Sprintf(OptionKey(int(m)))
}
