package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"round1/internal/config"
	"round1/internal/interview"
	"round1/internal/model"

	"go.uber.org/zap"
)

var ErrEmptyAIResponse = errors.New("empty response from Gemini")

const (
	interviewerPersona = "You are Round1, a fair and concise first-round interviewer. Ask one question at a time. Be neutral and job-relevant. Avoid demographic or legally protected topics."
	scorerPersona      = "You are an objective hiring assistant. Score strictly against the job requirements. Provide JSON only."
)

// EvaluatorService asks Gemini for interview questions and final scores
type EvaluatorService struct {
	config config.AIConfig
	client *http.Client
	log    *zap.Logger
}

// NewEvaluatorService creates a new evaluator service
func NewEvaluatorService(cfg config.AIConfig, log *zap.Logger) *EvaluatorService {
	return &EvaluatorService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
		log:    log.Named("evaluator"),
	}
}

// NewInterviewAI returns the question generator and scorer for the
// configuration: Gemini when an API key is set, the scripted interviewer
// otherwise.
func NewInterviewAI(cfg config.AIConfig, log *zap.Logger) (interview.QuestionGenerator, interview.Scorer) {
	if !cfg.IsEnabled() {
		log.Warn("Gemini API key not set, using scripted interviewer")
		s := NewScriptedInterviewer()
		return s, s
	}
	e := NewEvaluatorService(cfg, log)
	return e, e
}

// GenerateQuestion produces the next interview question
func (s *EvaluatorService) GenerateQuestion(ctx context.Context, req *model.QuestionRequest) (*model.GeneratedQuestion, error) {
	response, err := s.callGemini(ctx, s.config.Models.Question, interviewerPersona, buildQuestionPrompt(req))
	if err != nil {
		return nil, err
	}

	var q model.GeneratedQuestion
	if err := json.Unmarshal([]byte(response), &q); err != nil {
		s.log.Warn("unparseable question response", zap.Error(err), zap.String("body", truncate(response, 200)))
		return nil, fmt.Errorf("decode question: %w", err)
	}
	if !validCategory(q.Category) {
		q.Category = model.CategoryBehavioral
	}
	if q.FollowupHints == nil {
		q.FollowupHints = []string{}
	}
	return &q, nil
}

// ScoreInterview produces the final assessment
func (s *EvaluatorService) ScoreInterview(ctx context.Context, req *model.ScoreRequest) (*model.ScoreResult, error) {
	response, err := s.callGemini(ctx, s.config.Models.Scoring, scorerPersona, buildScorePrompt(req))
	if err != nil {
		return nil, err
	}

	var result model.ScoreResult
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		s.log.Warn("unparseable score response", zap.Error(err), zap.String("body", truncate(response, 200)))
		return nil, fmt.Errorf("decode score: %w", err)
	}
	result.InterviewScore = clampScore(result.InterviewScore)
	result.ResumeScore = clampScore(result.ResumeScore)
	result.BehaviorScore = clampScore(result.BehaviorScore)
	result.Overall = clampScore(result.Overall)
	return &result, nil
}

// callGemini makes a request to the Gemini API
func (s *EvaluatorService) callGemini(ctx context.Context, modelName, system, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"systemInstruction": map[string]interface{}{
			"parts": []map[string]string{
				{"text": system},
			},
		},
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
		"safetySettings": []map[string]string{
			{"category": "HARM_CATEGORY_HATE_SPEECH", "threshold": "BLOCK_ONLY_HIGH"},
			{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_HARASSMENT", "threshold": "BLOCK_MEDIUM_AND_ABOVE"},
			{"category": "HARM_CATEGORY_SEXUALLY_EXPLICIT", "threshold": "BLOCK_LOW_AND_ABOVE"},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(modelName), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini %s: status %d: %s", modelName, resp.StatusCode, truncate(string(body), 200))
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return stripCodeFence(geminiResp.Candidates[0].Content.Parts[0].Text), nil
	}

	return "", ErrEmptyAIResponse
}

// Prompt builders
func buildQuestionPrompt(req *model.QuestionRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Job Title: %s\n", req.JobTitle)
	if req.Company != "" {
		fmt.Fprintf(&sb, "Company: %s\n", req.Company)
	}
	fmt.Fprintf(&sb, "Job Description: %s\n", req.JobDescription)
	fmt.Fprintf(&sb, "Skills Required: %s\n\n", strings.Join(req.SkillsRequired, ", "))
	writeResume(&sb, req.Resume)

	sb.WriteString("\nTranscript So Far:\n")
	writeTranscript(&sb, req.TranscriptSoFar)

	if req.PreviousSignals != nil {
		fmt.Fprintf(&sb, "\nPrevious Signals: Attention Score Avg: %.1f, Speaking Ratio: %.2f\n",
			req.PreviousSignals.AttentionScoreAvg, req.PreviousSignals.SpeakingRatio)
	} else {
		sb.WriteString("\nPrevious Signals: No previous signals\n")
	}

	asked := 0
	for _, l := range req.TranscriptSoFar {
		if l.Speaker == model.SpeakerAgent {
			asked++
		}
	}
	fmt.Fprintf(&sb, "\nQuestions asked so far: %d of at most %d.\n", asked, req.MaxDepth)

	sb.WriteString(`
Constraints:
- One question only; prefer STAR follow-ups; keep to 1-2 sentences.
- Set shouldWrapUp to true on the last question you intend to ask.

Output JSON (schema):
{
  "question": string,
  "category": "experience"|"skill"|"behavioral"|"culture-add"|"project-deep-dive",
  "followupHints": string[],
  "shouldWrapUp": boolean
}`)
	return sb.String()
}

func buildScorePrompt(req *model.ScoreRequest) string {
	var sb strings.Builder
	sb.WriteString("Here are the details for the job:\n")
	fmt.Fprintf(&sb, "Job Title: %s\n", req.Job.Title)
	fmt.Fprintf(&sb, "Skills Required: %s\n", strings.Join(req.Job.SkillsRequired, ", "))
	fmt.Fprintf(&sb, "Overall Threshold: %.0f\n\n", req.Job.Thresholds.Overall)

	sb.WriteString("Here are the details for the resume:\n")
	writeResume(&sb, req.Resume)

	sb.WriteString("\nHere is the transcript of the interview:\n")
	writeTranscript(&sb, req.Transcript)

	b := req.Behavior
	fmt.Fprintf(&sb, `
Here are the behavior signals from the interview:
Average Attention Score: %.1f
Speaking Ratio: %.2f
Average Percentage of Time Looking Away: %.1f
Number of Pauses: %d
Blink Rate per Minute: %.1f
Head Stability Score: %.4f
Posture Lean: %s
Fidget Score: %.4f
Computed Behavioral Score: %.1f
Interview Duration: %.0f seconds

Here are the weights for scoring:
Interview Weight: %.2f
Resume Weight: %.2f
Behavior Weight: %.2f
`, b.AttentionScoreAvg, b.SpeakingRatio, b.LookingAwayPctAvg, b.PausesCount, b.BlinkRatePerMin,
		b.HeadStability, b.Lean, b.FidgetScore, b.BehaviorScore, b.DurationSec,
		req.Weights.Interview, req.Weights.Resume, req.Weights.Behavior)

	sb.WriteString(`
Rubric dimensions (0-5 each):
- Problem Solving
- Communication Clarity
- Technical/Role Skills Match
- Evidence/Examples Quality
- Professionalism (text-only; do not infer protected traits)

Compute:
- interviewScore (0-100)
- resumeScore (0-100)
- behaviorScore (0-100) using only aggregates (no protected attributes)
- overall = weighted sum (0-100)
- pass = overall >= thresholds.overall
- summary (<=120 words), skillHighlights[], concerns[], redFlags[]
- biasCheck: {"flagged": boolean, "notes": string}, flag if reasoning references demographics or protected classes.`)
	return sb.String()
}

func writeResume(sb *strings.Builder, r model.Resume) {
	fmt.Fprintf(sb, "Resume Summary: %s\n", r.Summary)
	fmt.Fprintf(sb, "Resume Skills: %s\n", strings.Join(r.Skills, ", "))
	sb.WriteString("Resume Experience:\n")
	for _, e := range r.Experience {
		fmt.Fprintf(sb, "  Title: %s\n  Company: %s\n", e.Title, e.Company)
		for _, b := range e.Bullets {
			fmt.Fprintf(sb, "   - %s\n", b)
		}
	}
}

func writeTranscript(sb *strings.Builder, lines []model.TranscriptLine) {
	if len(lines) == 0 {
		sb.WriteString("(none yet)\n")
		return
	}
	for _, l := range lines {
		fmt.Fprintf(sb, "Speaker: %s, Text: %s\n", l.Speaker, l.Text)
	}
}

func validCategory(c model.QuestionCategory) bool {
	switch c {
	case model.CategoryExperience, model.CategorySkill, model.CategoryBehavioral,
		model.CategoryCultureAdd, model.CategoryProjectDeepDive:
		return true
	}
	return false
}

// stripCodeFence removes a ```json fence some model versions add despite the mime type
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
