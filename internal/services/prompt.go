package services

import (
	"fmt"
	"strings"

	"github.com/GenyoNguyen/YouTubeLM/internal/rag"
	"github.com/GenyoNguyen/YouTubeLM/internal/types"
)

const qaSystemPrompt = `You are an intelligent AI assistant that helps users interact with YouTube video content.

TASK: Answer user questions based ENTIRELY on the provided video transcript sources.

IMPORTANT RULES:
1. **Citations**: ALWAYS use [1], [2], [3]... to cite sources after each piece of information.
2. **Accuracy**: Only answer based on what's in the sources. If information is not found, clearly state "I couldn't find this information in the provided videos."
3. **Clarity**: Explain in an easy-to-understand manner with specific examples from sources when needed.
4. **Language**: Respond in the same language as the user's question. Keep technical terms when necessary.
5. **Formatting**: Use bullet points, **bold**, and markdown to structure your response clearly.

NOTE: Each citation [N] corresponds to a specific video segment. Users can click on it to jump to that timestamp in the original video.`

const summarySystemPrompt = `You are an intelligent AI assistant that helps users summarize YouTube video content.

TASK: Create a detailed and well-structured summary for YouTube videos based on the provided transcript.

IMPORTANT RULES:
1. **Citations (MANDATORY)**: Use [1], [2], [3]... to cite different segments from the video. Place citations immediately after information from that segment.
2. **Summary Structure**: Introduction, Main Points (subsections per topic), Examples & Applications, Conclusion.
3. **Use only video content**: Do not fabricate or add information not present in the video.
4. **Detail level**: Summarize with enough detail so users understand the content without rewatching the entire video.
5. **Language**: Respond in the same language as the video content. Keep technical terms when necessary.
6. **Markdown formatting**: Use headers (##, ###), bullet points, **bold**, *italic* to clarify structure.`

const quizSystemPrompt = `You are an AI assistant specialized in creating quiz questions from YouTube video content.

TASK: Create high-quality quiz questions based on the provided video transcript sources.

IMPORTANT RULES:
1. **Test understanding**: Create questions that test comprehension, not just memorization.
2. **Clear and unambiguous**: Questions must be clear, easy to understand, and not confusing.
3. **Multiple Choice Questions (MCQ)**: exactly 4 choices (A, B, C, D), only one correct answer, plausible distractors.
4. **Short Answer Questions**: brief answers (1-2 sentences) testing core understanding.
5. **Content-based**: Questions must be answerable directly from the video content.
6. **JSON format**: Always return valid JSON format with no surrounding prose.`

// formatClock renders seconds as MM:SS for prompt timestamps.
func formatClock(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// formatSources numbers evidence [1..N] in rank order. The numbering is the
// contract that citation markers [n] in generated text refer to.
func formatSources(evidence []rag.Evidence) string {
	var b strings.Builder
	for i, e := range evidence {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] [%s - %s] %s:\n%s",
			i+1, formatClock(e.StartTime), formatClock(e.EndTime), e.VideoTitle, e.Text)
	}
	return b.String()
}

func buildQAPrompt(query string, evidence []rag.Evidence) string {
	return fmt.Sprintf(`Based on the following sources from YouTube videos, answer the user's question.

# SOURCES:

%s

---

# QUESTION:
%s

# ANSWER:
(Provide a detailed, clear answer and ALWAYS cite sources [1], [2],... after each important piece of information)`,
		formatSources(evidence), query)
}

func buildFollowupPrompt(history []*types.ChatMessage, evidence []rag.Evidence, query string) string {
	var h strings.Builder
	for _, m := range history {
		role := "User"
		if m.Role == types.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&h, "%s: %s\n\n", role, m.Content)
	}
	return fmt.Sprintf(`Based on the CONVERSATION HISTORY and new video sources, answer the follow-up question.

# CONVERSATION HISTORY:
%s
# NEW SOURCES:

%s

# FOLLOW-UP QUESTION:
%s

---

Answer the question based on context from the conversation history and new sources. Use citations [1], [2],... to reference sources. Keep the answer clear and easy to understand.`,
		h.String(), formatSources(evidence), query)
}

func buildDetailedSummaryPrompt(videoTitle, duration, transcript string) string {
	return fmt.Sprintf(`Based on the following chunks from the video, create a detailed and structured summary for the **ENTIRE** video content.

**Video Title**: %s
**Video Duration**: %s

# VIDEO SEGMENTS (ORDERED BY TIME):

%s

---

# REQUIREMENTS:

Create a summary of the ENTIRE video content with this structure:

## 1. Introduction
## 2. Main Points
## 3. Examples & Applications
## 4. Conclusion

**CRITICAL**:
- EVERY piece of information MUST have a citation [1], [2], [3]...
- Use all provided segments to cover the entire video content.
- Only use information present in the segments.`,
		videoTitle, duration, transcript)
}

func buildQuickSummaryPrompt(videoTitle, transcript string) string {
	return fmt.Sprintf(`Create a SHORT summary (5-8 sentences) of the main content of this video.

**Video Title**: %s

# TRANSCRIPT:

%s

---

Summarize the core content in one concise paragraph with citations [1], [2],... for key statements.`,
		videoTitle, transcript)
}

func buildMCQPrompt(numQuestions int, sources string) string {
	return fmt.Sprintf(`Based on the following sources from YouTube videos, create %d multiple choice questions (MCQ).

# SOURCES:

%s

---

# REQUIREMENTS:

1. **Clear questions**: Questions must be specific and easy to understand
2. **4 choices**: Provide exactly 4 options A, B, C, D
3. **One correct answer**: Only one answer should be correct
4. **Source index**: Include source_index (the source number, starting from 1)
5. **Test understanding**: Questions should test understanding of main concepts

# OUTPUT FORMAT:

Return questions in the following JSON format:
{
  "questions": [
    {
      "question": "...",
      "options": {"A": "...", "B": "...", "C": "...", "D": "..."},
      "correct_answer": "B",
      "source_index": 1,
      "explanation": "..."
    }
  ]
}

Generate %d questions now.`, numQuestions, sources, numQuestions)
}

func buildShortAnswerPrompt(numQuestions int, sources string) string {
	return fmt.Sprintf(`Based on the following sources from YouTube videos, create %d short answer questions.

# SOURCES:

%s

---

# REQUIREMENTS:

1. **Brief answers**: Questions should be answerable in 1-2 sentences
2. **Focus on core concepts**: Test understanding of main concepts
3. **Reference answer**: Include a brief sample answer (1-2 sentences)
4. **Source index**: Include source_index (the source number, starting from 1)
5. **Key points**: List 2-3 main points the answer should cover (as an array)

# OUTPUT FORMAT:

Return questions in the following JSON format:
{
  "questions": [
    {
      "question": "...",
      "reference_answer": "...",
      "source_index": 1,
      "key_points": ["...", "..."]
    }
  ]
}

Generate %d questions now. Remember that each reference answer should only be 1-2 sentences long.`,
		numQuestions, sources, numQuestions)
}
