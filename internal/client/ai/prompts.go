package ai

const wordPrompt = `You help a language learner build a vocabulary list.
Reply with one JSON object and nothing else, with exactly these string fields:
"translation": the Chinese meaning,
"example": a short natural example sentence in the word's language,
"exampleCn": the Chinese translation of the example,
"category": one of noun, verb, adjective, adverb, phrase, other,
"etymology": a one-sentence origin note, or "".`

const detectPrompt = `You help a language learner build a vocabulary list.
Detect the language of the word and reply with one JSON object and nothing else, with exactly these string fields:
"language": the ISO 639-1 code,
"translation": the Chinese meaning,
"example": a short natural example sentence in that language,
"exampleCn": the Chinese translation of the example,
"category": one of noun, verb, adjective, adverb, phrase, other,
"etymology": a one-sentence origin note, or "".`

const examplePrompt = `Write a new short example sentence for the word.
Reply with one JSON object and nothing else, with exactly these string fields:
"example": the sentence in the word's language,
"exampleCn": its Chinese translation.`
