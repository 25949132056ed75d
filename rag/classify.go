// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rag

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/kinfolk/core"
)

type intentKeywords struct {
	intent   core.QueryType
	keywords []string
}

// Checked in order; the first bag with a hit wins. Health comes first so
// that overlapping queries keep their privacy-sensitive framing.
var intents = []intentKeywords{
	{core.QueryTypeHealthPattern, []string{"health", "medical", "illness", "disease", "hereditary", "genetic", "健康", "疾病", "遗传"}},
	{core.QueryTypeEventPlanning, []string{"celebration", "party", "reunion", "birthday", "wedding", "庆祝", "聚会", "生日"}},
	{core.QueryTypeCulturalHeritage, []string{"tradition", "heritage", "recipe", "values", "wisdom", "传统", "文化", "智慧"}},
	{core.QueryTypeRelationshipDiscovery, []string{"family", "relative", "relationship", "cousin", "亲戚", "家人", "关系"}},
	{core.QueryTypeMemoryDiscovery, []string{"story", "memory", "remember", "childhood", "past", "故事", "回忆", "童年"}},
}

// Classify assigns an intent to a query by keyword matching.
func Classify(query string) core.QueryType {
	lower := strings.ToLower(query)
	for _, bag := range intents {
		for _, keyword := range bag.keywords {
			if strings.Contains(lower, keyword) {
				return bag.intent
			}
		}
	}
	return core.QueryTypeGeneral
}

// ChineseThreshold is the share of CJK ideographs above which text is
// treated as Chinese.
const ChineseThreshold = 0.3

// DetectLanguage returns zh-CN when more than ChineseThreshold of the runes in
// text are CJK Unified Ideographs (U+4E00 to U+9FFF), en-US otherwise.
func DetectLanguage(text string) core.Language {
	var cjk int
	for _, r := range text {
		if r >= '一' && r <= '鿿' {
			cjk++
		}
	}
	if float64(cjk) > float64(utf8.RuneCountInString(text))*ChineseThreshold {
		return core.LanguageChinese
	}
	return core.LanguageEnglish
}
