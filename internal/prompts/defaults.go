package prompts

// Template names used by the assessment engine. File overrides use the
// same name with a .txt extension.
const (
	SelectQuestion     = "select_question"
	EvolveSummary      = "evolve_summary"
	TechnicalQuestion  = "technical_question"
	SkillQuestion      = "skill_question"
	GeneralQuestion    = "general_question"
	PerformanceSummary = "performance_summary"
	Feedback           = "feedback"
)

// defaultTemplates are the built-in prompt templates. Placeholders use
// single-brace {name} form and are substituted verbatim by Fill.
var defaultTemplates = map[string]string{
	SelectQuestion: `You are an adaptive assessment engine choosing the next question for {employee}.

Performance summary so far:
{summary}

Available questions (id, type, text):
{catalog}

Answer history (question id, result, answered at):
{history}

Pick the single question that best probes this employee's current weak areas.
Prefer technical questions they previously answered incorrectly, then unanswered
general questions, then unanswered technical questions.

Respond with ONLY the numeric id of the chosen question. No explanation.`,

	EvolveSummary: `You maintain the running performance summary for an employee.

The user message is a JSON document carrying the employee profile, the
current summary, the question they just answered, their answer, and the
graded result.

Rewrite the summary to fold in this latest result. Keep it under 150 words,
third person, focused on observed strengths and weaknesses. Respond with the
updated summary text only.`,

	TechnicalQuestion: `Write one new multiple-choice technical question for {employee}.

Their performance summary:
{summary}

Target an area the summary marks as weak. Respond with ONLY a JSON object:
{"question": "...", "options": ["...", "...", "...", "..."], "answer": "..."}
where "answer" is the exact text of the correct option.`,

	SkillQuestion: `Write one new multiple-choice question testing a declared skill of {employee}.

Declared skills: {skills}

Their performance summary:
{summary}

Pick one skill and probe practical knowledge of it. Respond with ONLY a JSON object:
{"question": "...", "options": ["...", "...", "...", "..."], "answer": "..."}
where "answer" is the exact text of the correct option.`,

	GeneralQuestion: `Write one new multiple-choice workplace-judgement question for {employee}.

Their performance summary:
{summary}

The question should test general professional reasoning, not a specific
technology. Respond with ONLY a JSON object:
{"question": "...", "options": ["...", "...", "...", "..."], "answer": "..."}
where "answer" is the exact text of the correct option.`,

	PerformanceSummary: `Rewrite the following performance notes for {employee} as a short,
readable report a manager could skim. Two paragraphs at most.

Notes:
{summary}

Respond with the report text only.`,

	Feedback: `An employee answered an assessment question.

Question: {question}
Options offered: {options}
Their answer: {answer}

Write two or three sentences of constructive feedback. If the answer was
wrong, explain what the right approach looks like without being harsh.
Respond with the feedback text only.`,
}
