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
	"fmt"

	"github.com/poiesic/kinfolk/core"
)

const basePrompt = `You are a wise and caring family knowledge keeper. You help family members
connect with their heritage, stories, and relationships. You speak with warmth, respect for
elders, and deep appreciation for family bonds.`

var promptModifiers = map[core.QueryType]string{
	core.QueryTypeMemoryDiscovery:       " Focus on bringing family stories to life with vivid details and emotional context.",
	core.QueryTypeHealthPattern:         " Provide thoughtful health insights while emphasizing the importance of professional medical advice.",
	core.QueryTypeEventPlanning:         " Suggest meaningful ways to celebrate that honor family traditions and create lasting memories.",
	core.QueryTypeCulturalHeritage:      " Share insights about family traditions and values with deep respect for cultural heritage.",
	core.QueryTypeRelationshipDiscovery: " Help family members understand their connections and the importance of family bonds.",
	core.QueryTypeGeneral:               " Provide helpful and family-focused guidance based on the available information.",
}

// SystemPrompt returns the base persona followed by the intent's tone modifier.
// Unknown intents get the general modifier.
func SystemPrompt(intent core.QueryType) string {
	modifier, ok := promptModifiers[intent]
	if !ok {
		modifier = promptModifiers[core.QueryTypeGeneral]
	}
	return basePrompt + modifier
}

func userMessage(query, recordContext string) string {
	return fmt.Sprintf(`Family Knowledge Query: %s

%s

Please provide a helpful, warm, and family-focused response based on the information above.
Speak as if you're a knowledgeable family member sharing precious memories and insights.
If the query is in Chinese, please respond in Chinese. Otherwise, respond in English.
`, query, recordContext)
}

var fallbacks = map[core.Language]map[core.QueryType]string{
	core.LanguageChinese: {
		core.QueryTypeMemoryDiscovery:       "很抱歉，我在家庭记录中没有找到与您的问题直接相关的故事。不过，这可能是一个好机会来记录新的家庭记忆。您愿意分享一些相关的故事吗？",
		core.QueryTypeHealthPattern:         "关于您询问的健康问题，我在现有的家庭健康记录中没有找到相关信息。建议您咨询专业医生，并考虑将重要的健康信息添加到家庭记录中。",
		core.QueryTypeEventPlanning:         "虽然我没有找到关于类似活动的具体记录，但我建议您可以创造新的家庭传统。考虑一下什么样的庆祝方式最能体现您家庭的价值观和喜好。",
		core.QueryTypeCulturalHeritage:      "这是一个很好的问题！虽然我没有找到相关的传统记录，但这正是开始记录家庭文化传承的好时机。",
		core.QueryTypeRelationshipDiscovery: "关于家庭关系的问题，我建议您可以与长辈交流，了解更多家族史。同时，将这些珍贵的关系信息记录下来会很有价值。",
		core.QueryTypeGeneral:               "很抱歉，我没有找到与您的问题直接相关的家庭信息。不过，我很乐意帮助您思考如何收集和记录相关信息。",
	},
	core.LanguageEnglish: {
		core.QueryTypeMemoryDiscovery:       "I couldn't find specific family stories related to your question in our records. This might be a wonderful opportunity to capture new family memories. Would you like to share some related stories?",
		core.QueryTypeHealthPattern:         "I don't have specific health information related to your question in our family records. I recommend consulting with healthcare professionals and considering adding important health information to your family records.",
		core.QueryTypeEventPlanning:         "While I don't have records of similar events, this could be a chance to create new family traditions. Consider what type of celebration would best reflect your family's values and preferences.",
		core.QueryTypeCulturalHeritage:      "That's a wonderful question! While I don't have specific records about this tradition, this could be a perfect time to start documenting your family's cultural heritage.",
		core.QueryTypeRelationshipDiscovery: "For questions about family relationships, I suggest speaking with elder family members to learn more about your family history. Recording these precious connections would be very valuable.",
		core.QueryTypeGeneral:               "I couldn't find information directly related to your question in our family records. However, I'd be happy to help you think about how to gather and record relevant information.",
	},
}

var errorMessages = map[core.Language]string{
	core.LanguageChinese: "抱歉，处理您的问题时遇到了技术问题。请稍后再试，或者联系系统管理员。",
	core.LanguageEnglish: "I'm sorry, but I encountered a technical issue while processing your question. Please try again later or contact the system administrator.",
}

// Fallback returns the canned answer for an intent in the query's language.
// The query only selects the language; none of it is echoed back.
func Fallback(query string, intent core.QueryType) string {
	table := fallbacks[DetectLanguage(query)]
	if answer, ok := table[intent]; ok {
		return answer
	}
	return table[core.QueryTypeGeneral]
}
