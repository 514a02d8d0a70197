package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"round1/internal/model"
)

type bankQuestion struct {
	text     string
	category model.QuestionCategory
}

var baseQuestions = []bankQuestion{
	{"Tell me about yourself and why you're interested in this role.", model.CategoryExperience},
	{"Describe a challenging project you've worked on recently.", model.CategoryProjectDeepDive},
	{"How do you handle working under pressure or tight deadlines?", model.CategoryBehavioral},
	{"What are your greatest strengths and how do they apply to this position?", model.CategorySkill},
	{"Where do you see yourself in 5 years?", model.CategoryCultureAdd},
	{"Do you have any questions for us?", model.CategoryCultureAdd},
}

var (
	javascriptQuestions = []string{
		"Can you explain the difference between var, let, and const in JavaScript?",
		"How do you handle asynchronous operations in JavaScript?",
		"What are closures and how do you use them?",
		"How do you optimize website performance?",
		"What's your experience with responsive design?",
	}
	reactQuestions = []string{
		"What are React hooks and how do you use them?",
		"Can you explain the component lifecycle in React?",
		"How do you manage state in React applications?",
		"What's the difference between controlled and uncontrolled components?",
	}
	nodeQuestions = []string{
		"What is the event loop in Node.js?",
		"How do you handle errors in Node.js applications?",
		"What are the benefits of using Node.js for backend development?",
		"How do you implement authentication and authorization?",
	}
	pythonQuestions = []string{
		"What are Python decorators and how do you use them?",
		"How do you handle exceptions in Python?",
		"What's the difference between lists and tuples in Python?",
		"How do you work with virtual environments?",
	}
	teamQuestions = []string{
		"How do you handle conflicts within a team?",
		"Describe a time when you had to work with a difficult team member.",
		"What's your approach to mentoring junior developers?",
	}
	agileQuestions = []string{
		"How do you handle changing requirements in an agile environment?",
		"What's your experience with sprint planning and retrospectives?",
		"How do you estimate story points for user stories?",
	}
)

const (
	planBaseCount     = 5
	planSpecificCount = 5
	fullAnswerWords   = 50
)

var starHints = []string{
	"Ask for a concrete example",
	"Ask what the candidate's own contribution was",
	"Ask about the measurable result",
}

// ScriptedInterviewer asks a deterministic per-job question plan and scores
// with transcript and resume heuristics. It stands in for Gemini when no API
// key is configured.
type ScriptedInterviewer struct{}

// NewScriptedInterviewer creates a scripted interviewer
func NewScriptedInterviewer() *ScriptedInterviewer {
	return &ScriptedInterviewer{}
}

// GenerateQuestion returns the plan entry for the current turn, or nil once
// the plan or the turn budget is used up
func (s *ScriptedInterviewer) GenerateQuestion(ctx context.Context, req *model.QuestionRequest) (*model.GeneratedQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan := questionPlan(req.JobTitle, req.Company, req.JobDescription, req.SkillsRequired)
	limit := len(plan)
	if req.MaxDepth < limit {
		limit = req.MaxDepth
	}

	asked := 0
	for _, l := range req.TranscriptSoFar {
		if l.Speaker == model.SpeakerAgent {
			asked++
		}
	}
	if asked >= limit {
		return nil, nil
	}

	q := plan[asked]
	hints := []string{}
	if q.category == model.CategoryBehavioral || q.category == model.CategoryProjectDeepDive {
		hints = append(hints, starHints...)
	}
	return &model.GeneratedQuestion{
		Question:      q.text,
		Category:      q.category,
		FollowupHints: hints,
		ShouldWrapUp:  asked == limit-1,
	}, nil
}

// questionPlan builds the question list for a job. The same job always gets
// the same list in the same order.
func questionPlan(title, company, description string, skills []string) []bankQuestion {
	requirements := strings.ToLower(strings.Join(skills, ", "))
	lowerTitle := strings.ToLower(title)
	lowerDesc := strings.ToLower(description)

	var specific []bankQuestion
	add := func(category model.QuestionCategory, texts ...string) {
		for _, t := range texts {
			specific = append(specific, bankQuestion{t, category})
		}
	}

	if strings.Contains(requirements, "javascript") || strings.Contains(requirements, "js") ||
		strings.Contains(lowerTitle, "frontend") || strings.Contains(lowerTitle, "ui") {
		add(model.CategorySkill, javascriptQuestions...)
	}
	if strings.Contains(requirements, "react") || strings.Contains(lowerTitle, "react") {
		add(model.CategorySkill, reactQuestions...)
	}
	if strings.Contains(requirements, "node.js") || strings.Contains(requirements, "nodejs") || strings.Contains(lowerTitle, "backend") {
		add(model.CategorySkill, nodeQuestions...)
	}
	if strings.Contains(requirements, "python") || strings.Contains(lowerTitle, "python") {
		add(model.CategorySkill, pythonQuestions...)
	}
	if strings.Contains(lowerDesc, "team") || strings.Contains(lowerDesc, "collaboration") {
		add(model.CategoryBehavioral, teamQuestions...)
	}
	if strings.Contains(lowerDesc, "agile") || strings.Contains(lowerDesc, "scrum") {
		add(model.CategoryBehavioral, agileQuestions...)
	}
	if company != "" {
		add(model.CategoryCultureAdd,
			fmt.Sprintf("What interests you about working at %s?", company),
			fmt.Sprintf("How do you think your experience aligns with %s's mission?", company))
	}

	all := append(append([]bankQuestion(nil), baseQuestions...), specific...)
	seed := 0
	for _, r := range strings.ToLower(title + "-" + company) {
		seed += int(r)
	}
	for i := len(all) - 1; i > 0; i-- {
		j := (seed + i) % (i + 1)
		all[i], all[j] = all[j], all[i]
	}

	baseCount := min(planBaseCount, len(baseQuestions))
	specificCount := min(planSpecificCount, len(specific))
	plan := append([]bankQuestion(nil), all[:baseCount]...)
	return append(plan, all[len(baseQuestions):len(baseQuestions)+specificCount]...)
}

// ScoreInterview scores answer length, resume skill overlap and the
// aggregate behavior score, then weights them into the overall score
func (s *ScriptedInterviewer) ScoreInterview(ctx context.Context, req *model.ScoreRequest) (*model.ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var concerns, redFlags []string

	interviewScore, answers, short := answerQuality(req.Transcript)
	switch {
	case answers == 0:
		concerns = append(concerns, "No answers were given")
	case short > answers/2:
		concerns = append(concerns, "Most answers were brief and lacked specifics")
	}

	matched, missing := skillOverlap(req.Job.SkillsRequired, req.Resume.Skills)
	resumeScore := 70.0
	if len(req.Job.SkillsRequired) > 0 {
		resumeScore = 40 + 60*float64(len(matched))/float64(len(req.Job.SkillsRequired))
	}
	if len(missing) > 0 {
		concerns = append(concerns, "Resume does not mention: "+strings.Join(missing, ", "))
	}

	b := req.Behavior
	behaviorScore := b.BehaviorScore
	if behaviorScore == 0 {
		behaviorScore = b.AttentionScoreAvg
	}
	if behaviorScore == 0 {
		behaviorScore = 50
	}
	if b.LookingAwayPctAvg > 50 {
		redFlags = append(redFlags, "Frequently looked away from the screen")
	}

	w := req.Weights
	overall := w.Interview*interviewScore + w.Resume*resumeScore + w.Behavior*behaviorScore
	overall = math.Round(overall*10) / 10

	summary := fmt.Sprintf("Answered %d question(s) for %s. Matched %d of %d required skills.",
		answers, req.Job.Title, len(matched), len(req.Job.SkillsRequired))

	if concerns == nil {
		concerns = []string{}
	}
	if redFlags == nil {
		redFlags = []string{}
	}
	return &model.ScoreResult{
		InterviewScore:  math.Round(interviewScore),
		ResumeScore:     math.Round(resumeScore),
		BehaviorScore:   math.Round(behaviorScore),
		Overall:         overall,
		Pass:            overall >= req.Job.Thresholds.Overall,
		Summary:         summary,
		SkillHighlights: matched,
		Concerns:        concerns,
		RedFlags:        redFlags,
		BiasCheck: model.BiasCheck{
			Flagged: false,
			Notes:   "Scored from answer length, skill overlap and aggregate behavior only",
		},
	}, nil
}

// answerQuality averages min(1, words/50) over candidate answers, as 0-100
func answerQuality(lines []model.TranscriptLine) (score float64, answers, short int) {
	var total float64
	for _, l := range lines {
		if l.Speaker != model.SpeakerCandidate {
			continue
		}
		answers++
		q := float64(len(strings.Fields(l.Text))) / fullAnswerWords
		if q > 1 {
			q = 1
		}
		if q < 0.3 {
			short++
		}
		total += q
	}
	if answers == 0 {
		return 0, 0, 0
	}
	return total / float64(answers) * 100, answers, short
}

func skillOverlap(required, have []string) (matched, missing []string) {
	set := make(map[string]bool, len(have))
	for _, s := range have {
		set[strings.ToLower(strings.TrimSpace(s))] = true
	}
	matched = []string{}
	for _, r := range required {
		if set[strings.ToLower(strings.TrimSpace(r))] {
			matched = append(matched, r)
		} else {
			missing = append(missing, r)
		}
	}
	return matched, missing
}
