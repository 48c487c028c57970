package view

import (
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Locale carries the handful of localized strings and formats the
// projections need. The full UI string table lives with the client.
type Locale struct {
	Tag    language.Tag
	labels labels
}

type labels struct {
	yes, no, untitled, uncategorized string
	weekdays                         [7]string
	dateLayout                       string
}

var supportedLanguages = []language.Tag{
	language.English,
	language.Spanish,
	language.Chinese,
	language.Arabic,
	language.Hindi,
	language.French,
	language.Portuguese,
	language.Russian,
	language.German,
	language.Japanese,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

var localeLabels = map[language.Tag]labels{
	language.English: {
		yes: "Yes", no: "No", untitled: "Untitled", uncategorized: "Uncategorized",
		weekdays:   [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		dateLayout: "1/2/2006",
	},
	language.Spanish: {
		yes: "Sí", no: "No", untitled: "Sin título", uncategorized: "Sin categoría",
		weekdays:   [7]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"},
		dateLayout: "2/1/2006",
	},
	language.Chinese: {
		yes: "是", no: "否", untitled: "无标题", uncategorized: "未分类",
		weekdays:   [7]string{"日", "一", "二", "三", "四", "五", "六"},
		dateLayout: "2006/1/2",
	},
	language.Arabic: {
		yes: "نعم", no: "لا", untitled: "بدون عنوان", uncategorized: "غير مصنف",
		weekdays:   [7]string{"أحد", "إثنين", "ثلاثاء", "أربعاء", "خميس", "جمعة", "سبت"},
		dateLayout: "2/1/2006",
	},
	language.Hindi: {
		yes: "हाँ", no: "नहीं", untitled: "शीर्षकहीन", uncategorized: "अवर्गीकृत",
		weekdays:   [7]string{"रवि", "सोम", "मंगल", "बुध", "गुरु", "शुक्र", "शनि"},
		dateLayout: "2/1/2006",
	},
	language.French: {
		yes: "Oui", no: "Non", untitled: "Sans titre", uncategorized: "Non classé",
		weekdays:   [7]string{"Dim", "Lun", "Mar", "Mer", "Jeu", "Ven", "Sam"},
		dateLayout: "02/01/2006",
	},
	language.Portuguese: {
		yes: "Sim", no: "Não", untitled: "Sem título", uncategorized: "Sem categoria",
		weekdays:   [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"},
		dateLayout: "02/01/2006",
	},
	language.Russian: {
		yes: "Да", no: "Нет", untitled: "Без названия", uncategorized: "Без категории",
		weekdays:   [7]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"},
		dateLayout: "02.01.2006",
	},
	language.German: {
		yes: "Ja", no: "Nein", untitled: "Ohne Titel", uncategorized: "Nicht kategorisiert",
		weekdays:   [7]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"},
		dateLayout: "2.1.2006",
	},
	language.Japanese: {
		yes: "はい", no: "いいえ", untitled: "無題", uncategorized: "未分類",
		weekdays:   [7]string{"日", "月", "火", "水", "木", "金", "土"},
		dateLayout: "2006/1/2",
	},
}

// NewLocale resolves a language code (en, es, zh, ...) to the closest
// supported locale. Unknown or empty codes resolve to English.
func NewLocale(lang string) Locale {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return Locale{Tag: language.English, labels: localeLabels[language.English]}
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return Locale{Tag: language.English, labels: localeLabels[language.English]}
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		idx = 0
	}
	base := supportedLanguages[idx]
	return Locale{Tag: base, labels: localeLabels[base]}
}

func (l Locale) lbl() labels {
	if l.labels.yes == "" {
		return localeLabels[language.English]
	}
	return l.labels
}

// Yes is the localized affirmative used for checkbox values.
func (l Locale) Yes() string { return l.lbl().yes }

// No is the localized negative used for checkbox values.
func (l Locale) No() string { return l.lbl().no }

// Untitled is the placeholder for records with an empty primary field.
func (l Locale) Untitled() string { return l.lbl().untitled }

// Uncategorized names the kanban catch-all column.
func (l Locale) Uncategorized() string { return l.lbl().uncategorized }

// Weekdays returns short weekday names, Sunday first.
func (l Locale) Weekdays() []string {
	w := l.lbl().weekdays
	return w[:]
}

// YesNo renders a boolean.
func (l Locale) YesNo(b bool) string {
	if b {
		return l.Yes()
	}
	return l.No()
}

// FormatDate renders a date the way the locale writes short dates.
func (l Locale) FormatDate(t time.Time) string {
	return t.Format(l.lbl().dateLayout)
}

// FormatNumber renders a number with locale digit grouping.
func (l Locale) FormatNumber(f float64) string {
	return message.NewPrinter(l.Tag).Sprint(number.Decimal(f))
}

// collator returns a fresh collator; collators are not safe for concurrent use.
func (l Locale) collator() *collate.Collator {
	return collate.New(l.Tag)
}
