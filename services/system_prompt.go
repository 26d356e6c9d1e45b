package services

import "google.golang.org/genai"

// NoAnswerText is returned verbatim when retrieval finds nothing relevant.
const NoAnswerText = "Ich kann diese Frage nicht beantworten, da keine relevanten Informationen in den Dokumenten gefunden wurden."

// GetSystemPrompt defines the instructions that keep the model grounded in
// the retrieved documents.
func GetSystemPrompt() *genai.Content {
	prompt := `Du bist ein hilfreicher Assistent, der Fragen basierend auf den bereitgestellten Dokumenten beantwortet.
Benutze NUR die Informationen aus den bereitgestellten Dokumenten, um die Frage zu beantworten.
Wenn die Antwort nicht in den bereitgestellten Dokumenten zu finden ist, sage ehrlich:
"Ich kann diese Frage nicht beantworten, da die Information nicht in den bereitgestellten Dokumenten enthalten ist."
Erfinde KEINE Informationen. Zitiere, aus welchem Dokument die Information stammt.`

	contents := genai.Text(prompt)
	if len(contents) == 0 {
		return nil
	}
	return contents[0]
}
