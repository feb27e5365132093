// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// TranslationTargets are the languages offered for quick translation.
var TranslationTargets = []language.Tag{
	language.English,
	language.SimplifiedChinese,
	language.TraditionalChinese,
	language.Japanese,
	language.Korean,
	language.French,
	language.German,
	language.Spanish,
	language.Italian,
	language.Portuguese,
	language.Russian,
	language.Arabic,
	language.Hindi,
	language.Dutch,
	language.Turkish,
	language.Vietnamese,
	language.Thai,
	language.Indonesian,
}

// LanguageName returns the English name of tag, e.g. "French".
func LanguageName(tag language.Tag) string {
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}

// ParseLanguage resolves a BCP 47 tag ("fr", "zh-Hant") or a language name in
// English or in the language itself ("French", "Français", "中文").
func ParseLanguage(s string) (language.Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return language.Und, fmt.Errorf("%w: empty", ErrUnknownLanguage)
	}

	for _, tag := range TranslationTargets {
		if strings.EqualFold(s, LanguageName(tag)) ||
			strings.EqualFold(s, display.Self.Name(tag)) ||
			strings.EqualFold(s, display.English.Languages().Name(tag)) {
			return tag, nil
		}
	}
	if tag, err := language.Parse(s); err == nil {
		return tag, nil
	}
	return language.Und, fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}

// TranslatePrompt builds the message that asks for text to be translated.
func TranslatePrompt(text string, tag language.Tag) string {
	return fmt.Sprintf("Translate the following into %s:\n%s", LanguageName(tag), text)
}
