package prompts

import "math/rand"

// Каталог шаблонов типичных запросов пользователя к AI-ассистенту.
// Пары "тип запроса + тема" образуют промпты для генерации вопросов.
var requestTypes = []string{
	"Explain how to",
	"Give me ideas for",
	"Help me brainstorm",
	"Create a simple",
	"Summarize the main points about",
	"Suggest ways to improve",
	"What is the best way to",
	"Describe in plain words",
}

var topicContexts = []string{
	"casual logic or an everyday concept",
	"the meaning of a common abbreviation",
	"everyday facts",
	"general common knowledge",
	"a simple life skill",
	"a popular hobby",
}

// RandomRequestType возвращает случайный шаблон запроса из каталога.
func RandomRequestType() string {
	return requestTypes[rand.Intn(len(requestTypes))]
}

// GenerateDistinctPrompts возвращает три промпта: один для настоящего вопроса
// и два для фейковых. Оба пула перемешиваются независимо и "сшиваются" по
// позиции, поэтому все три пары гарантированно используют разные шаблоны и
// разные темы. Чистая функция, всегда успешна при размере пулов >= 3.
func GenerateDistinctPrompts() (string, string, string) {
	types := make([]string, len(requestTypes))
	copy(types, requestTypes)
	rand.Shuffle(len(types), func(i, j int) { types[i], types[j] = types[j], types[i] })

	topics := make([]string, len(topicContexts))
	copy(topics, topicContexts)
	rand.Shuffle(len(topics), func(i, j int) { topics[i], topics[j] = topics[j], topics[i] })

	return types[0] + " " + topics[0],
		types[1] + " " + topics[1],
		types[2] + " " + topics[2]
}
