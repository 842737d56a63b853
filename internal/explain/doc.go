// Package explain drafts short Japanese explanations for questions whose
// paste carried no 解説 section. It talks to OpenAI (go-openai) or Gemini
// (genai), caches answers for batch runs, and lists the OpenAI chat
// models usable with the configured key.
package explain
