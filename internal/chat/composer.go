package chat

import "fmt"

// systemInstruction asks the model for structured, scannable answers.
const systemInstruction = `You are a helpful AI assistant. When providing answers:
- Use clear headings (## for main sections, ### for subsections) to organize information
- Use bullet points for lists and key points
- Break down complex answers into well-structured sections
- Use code blocks (` + "```" + `) for technical content or code
- Keep paragraphs concise and scannable
- Avoid long, single-paragraph responses

Provide structured, easy-to-read responses that help users quickly understand the information.`

const pageContextPreamble = "\n\nHere is the context of the webpage I am looking at (Screenshot and Text). Use this to answer my questions.\n\nText Content:\n"

// Compose merges conversation history with the page context and the optional
// uploaded file into the exact payload for the remote call.
//
// The context parts (system instruction, page text, screenshot, file block)
// attach to the earliest user turn: when history starts with a user message
// they are prepended into that message's parts, otherwise they form a
// synthetic leading user message. Either way the context is transmitted
// exactly once per conversation, no matter how many turns follow.
//
// history is never mutated; Compose returns a fresh slice.
func Compose(history []Message, pageCtx PageContext, file *UploadedFile) []Message {
	ctxParts := []Part{
		TextPart(systemInstruction),
		TextPart(pageContextPreamble + pageCtx.ExtractedText),
		ImagePart("image/jpeg", pageCtx.Screenshot),
	}
	if file != nil {
		ctxParts = append(ctxParts, TextPart(fmt.Sprintf(
			"\n\n--- Uploaded File: %s ---\n%s\n--- End of File ---",
			file.Name, file.Content,
		)))
	}

	if len(history) > 0 && history[0].Role == RoleUser {
		merged := Message{
			Role:  RoleUser,
			Parts: append(append([]Part{}, ctxParts...), history[0].Parts...),
		}
		out := make([]Message, 0, len(history))
		out = append(out, merged)
		out = append(out, history[1:]...)
		return out
	}

	out := make([]Message, 0, len(history)+1)
	out = append(out, Message{Role: RoleUser, Parts: ctxParts})
	out = append(out, history...)
	return out
}
