package dialogue

import "strings"

// DefaultContinuation хвост для ответа, обрезанного не по границе предложения.
const DefaultContinuation = "... Daha fazla bilgi için sorabilirsiniz."

// Truncate укорачивает текст до maxWords слов, чтобы озвучка укладывалась примерно в 15 секунд.
// Если в первых maxWords словах есть точка дальше середины, режем по ней. Иначе оставляем
// столько слов, чтобы вместе с continuation вышло не больше maxWords; повторное применение
// ничего не меняет.
func Truncate(text string, maxWords int, continuation string) string {
	words := strings.Fields(text)
	if maxWords <= 0 || len(words) <= maxWords {
		return text
	}

	if cut, ok := cutAtSentence(strings.Join(words[:maxWords], " ")); ok {
		return cut
	}

	// continuation приклеивается к последнему слову ("слово..."), поэтому её первое
	// поле слова не добавляет, если начинается с пунктуации.
	keep := maxWords - continuationWords(continuation)
	if keep < 1 {
		return strings.Join(words[:maxWords], " ")
	}
	return strings.Join(words[:keep], " ") + continuation
}

// cutAtSentence обрезает по последней точке, если она правее середины.
// Позиции считаем в рунах: турецкие буквы занимают больше одного байта.
func cutAtSentence(candidate string) (string, bool) {
	runes := []rune(candidate)
	if last := lastIndexRune(runes, '.'); last != -1 && last > len(runes)/2 {
		return string(runes[:last+1]), true
	}
	return "", false
}

// WordCount количество слов, разделённых пробельными символами.
func WordCount(text string) int { return len(strings.Fields(text)) }

func continuationWords(continuation string) int {
	fields := strings.Fields(continuation)
	if len(fields) == 0 {
		return 0
	}
	// "... Daha" — первое поле прилипает к последнему слову кандидата, если перед ним нет пробела.
	if !strings.HasPrefix(continuation, " ") && !strings.HasPrefix(continuation, "\t") {
		return len(fields) - 1
	}
	return len(fields)
}

func lastIndexRune(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}
