package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"finquest/apperr"
	"finquest/clients/openai"
	"finquest/utils"
)

// NoAnswer stands in for questions the candidate did not answer.
const NoAnswer = "Pas de réponse"

const (
	maxFrameBytes = 4 << 20
	aiUnavailable = "Analysis unavailable, please retry later"
)

var frameDataURL = regexp.MustCompile(`^data:image/(png|jpeg|jpg|webp);base64,([A-Za-z0-9+/]+={0,2})$`)

// AIClient is the subset of the model API used by the interview service.
type AIClient interface {
	Configured() bool
	Model() string
	VisionModel() string
	CompleteJSON(ctx context.Context, req openai.SchemaRequest) (string, error)
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

type InterviewInput struct {
	JobTitle  string
	Questions []string
	Answers   []string
}

type SubScores struct {
	Communication      int `json:"communication"`
	TechnicalKnowledge int `json:"technicalKnowledge"`
	ProblemSolving     int `json:"problemSolving"`
	Professionalism    int `json:"professionalism"`
}

type QuestionFeedback struct {
	Question           string   `json:"question"`
	Answer             string   `json:"answer"`
	Score              int      `json:"score"`
	Strengths          []string `json:"strengths"`
	Weaknesses         []string `json:"weaknesses"`
	MissingElements    []string `json:"missingElements"`
	RecommendedActions []string `json:"recommendedActions"`
}

type InterviewFeedback struct {
	OverallScore     int                `json:"overallScore"`
	Verdict          string             `json:"verdict"`
	RiskLevel        string             `json:"riskLevel"`
	SubScores        SubScores          `json:"subScores"`
	Questions        []QuestionFeedback `json:"questions"`
	Strengths        []string           `json:"strengths"`
	ImprovementAreas []string           `json:"improvementAreas"`
	Suggestions      []string           `json:"suggestions"`
}

type VisualAspect struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// VisualFeedback is the non-verbal evaluation of one frame. Available is
// false when the model could not be reached or answered nonsense.
type VisualFeedback struct {
	Available       bool          `json:"available"`
	Attire          *VisualAspect `json:"attire,omitempty"`
	Posture         *VisualAspect `json:"posture,omitempty"`
	EyeContact      *VisualAspect `json:"eyeContact,omitempty"`
	Expression      *VisualAspect `json:"expression,omitempty"`
	Environment     *VisualAspect `json:"environment,omitempty"`
	ConfidenceLevel string        `json:"confidenceLevel,omitempty"`
	RiskFlags       []string      `json:"riskFlags"`
	Tips            []string      `json:"tips"`
}

// Model answers decode into these first. Scores are pointers so that a
// missing number fails validation instead of decoding to 0.
type subScoresPayload struct {
	Communication      *int `json:"communication" validate:"required,min=0,max=100"`
	TechnicalKnowledge *int `json:"technicalKnowledge" validate:"required,min=0,max=100"`
	ProblemSolving     *int `json:"problemSolving" validate:"required,min=0,max=100"`
	Professionalism    *int `json:"professionalism" validate:"required,min=0,max=100"`
}

type questionPayload struct {
	Score              *int     `json:"score" validate:"required,min=0,max=100"`
	Strengths          []string `json:"strengths" validate:"required"`
	Weaknesses         []string `json:"weaknesses" validate:"required"`
	MissingElements    []string `json:"missingElements" validate:"required"`
	RecommendedActions []string `json:"recommendedActions" validate:"required"`
}

type interviewPayload struct {
	OverallScore     *int              `json:"overallScore" validate:"required,min=0,max=100"`
	Verdict          string            `json:"verdict" validate:"required"`
	RiskLevel        string            `json:"riskLevel" validate:"required,oneof=low medium high"`
	SubScores        *subScoresPayload `json:"subScores" validate:"required"`
	Questions        []questionPayload `json:"questions" validate:"required,min=1,dive"`
	Strengths        []string          `json:"strengths" validate:"required"`
	ImprovementAreas []string          `json:"improvementAreas" validate:"required"`
	Suggestions      []string          `json:"suggestions" validate:"required"`
}

type aspectPayload struct {
	Score   *int   `json:"score" validate:"required,min=0,max=100"`
	Comment string `json:"comment" validate:"required"`
}

type visualPayload struct {
	Attire          *aspectPayload `json:"attire" validate:"required"`
	Posture         *aspectPayload `json:"posture" validate:"required"`
	EyeContact      *aspectPayload `json:"eyeContact" validate:"required"`
	Expression      *aspectPayload `json:"expression" validate:"required"`
	Environment     *aspectPayload `json:"environment" validate:"required"`
	ConfidenceLevel string         `json:"confidenceLevel" validate:"required,oneof=low medium high"`
	RiskFlags       []string       `json:"riskFlags" validate:"required"`
	Tips            []string       `json:"tips" validate:"required"`
}

type InterviewService struct {
	ai      AIClient
	timeout time.Duration
}

func NewInterviewService(ai AIClient, timeout time.Duration) *InterviewService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &InterviewService{ai: ai, timeout: timeout}
}

// AnalyzeInterview evaluates a mock interview. The model answer is accepted
// only if it matches the expected shape completely; anything else is
// reported as unavailable.
func (s *InterviewService) AnalyzeInterview(ctx context.Context, in InterviewInput) (*InterviewFeedback, error) {
	jobTitle := strings.TrimSpace(in.JobTitle)
	if jobTitle == "" {
		return nil, apperr.Validation("jobTitle is required", nil)
	}
	if len(in.Questions) == 0 {
		return nil, apperr.Validation("At least one question is required", nil)
	}
	if len(in.Answers) > len(in.Questions) {
		return nil, apperr.Validation("More answers than questions", map[string]interface{}{
			"questions": len(in.Questions),
			"answers":   len(in.Answers),
		})
	}
	questions := make([]string, len(in.Questions))
	answers := make([]string, len(in.Questions))
	for i, q := range in.Questions {
		questions[i] = strings.TrimSpace(q)
		if questions[i] == "" {
			return nil, apperr.Validation("Questions must not be empty", map[string]interface{}{"index": i})
		}
		answers[i] = NoAnswer
		if i < len(in.Answers) && strings.TrimSpace(in.Answers[i]) != "" {
			answers[i] = strings.TrimSpace(in.Answers[i])
		}
	}

	if !s.ai.Configured() {
		utils.AIRequests.WithLabelValues("interview", "disabled").Inc()
		return nil, apperr.Upstream(aiUnavailable, openai.ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.ai.CompleteJSON(ctx, openai.SchemaRequest{
		Model:      s.ai.Model(),
		System:     interviewSystemPrompt,
		User:       []openai.ContentPart{openai.TextPart(interviewUserPrompt(jobTitle, questions, answers))},
		SchemaName: "interview_feedback",
		Schema:     interviewSchema,
	})
	if err != nil {
		utils.AIRequests.WithLabelValues("interview", "error").Inc()
		utils.Log.Errorw("interview analysis failed", "jobTitle", jobTitle, "error", err)
		return nil, apperr.Upstream(aiUnavailable, err)
	}

	feedback, err := parseInterviewFeedback(raw, questions, answers)
	if err != nil {
		utils.AIRequests.WithLabelValues("interview", "parse_error").Inc()
		utils.Log.Warnw("interview analysis unparseable", "jobTitle", jobTitle, "error", err)
		return nil, apperr.Upstream(aiUnavailable, err)
	}
	utils.AIRequests.WithLabelValues("interview", "ok").Inc()
	return feedback, nil
}

func parseInterviewFeedback(raw string, questions, answers []string) (*InterviewFeedback, error) {
	var p interviewPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, apperr.Parse("interview feedback is not valid JSON", err)
	}
	if err := utils.Validate.Struct(p); err != nil {
		return nil, apperr.Parse("interview feedback does not match schema", err)
	}
	if len(p.Questions) != len(questions) {
		return nil, apperr.Parse("interview feedback question count mismatch",
			fmt.Errorf("got %d evaluations for %d questions", len(p.Questions), len(questions)))
	}

	fb := &InterviewFeedback{
		OverallScore: *p.OverallScore,
		Verdict:      strings.TrimSpace(p.Verdict),
		RiskLevel:    p.RiskLevel,
		SubScores: SubScores{
			Communication:      *p.SubScores.Communication,
			TechnicalKnowledge: *p.SubScores.TechnicalKnowledge,
			ProblemSolving:     *p.SubScores.ProblemSolving,
			Professionalism:    *p.SubScores.Professionalism,
		},
		Questions:        make([]QuestionFeedback, len(questions)),
		Strengths:        p.Strengths,
		ImprovementAreas: p.ImprovementAreas,
		Suggestions:      p.Suggestions,
	}
	for i, q := range p.Questions {
		fb.Questions[i] = QuestionFeedback{
			Question:           questions[i],
			Answer:             answers[i],
			Score:              *q.Score,
			Strengths:          q.Strengths,
			Weaknesses:         q.Weaknesses,
			MissingElements:    q.MissingElements,
			RecommendedActions: q.RecommendedActions,
		}
	}
	return fb, nil
}

// ValidateFrame checks that frame is a base64 image data URL of a supported
// type and reasonable size.
func ValidateFrame(frame string) error {
	m := frameDataURL.FindStringSubmatch(strings.TrimSpace(frame))
	if m == nil {
		return apperr.Validation("frameDataUrl must be a base64 png, jpeg or webp data URL", nil)
	}
	if base64.StdEncoding.DecodedLen(len(m[2])) > maxFrameBytes {
		return apperr.Validation("Image is too large", map[string]interface{}{"maxBytes": maxFrameBytes})
	}
	if _, err := base64.StdEncoding.DecodeString(m[2]); err != nil {
		return apperr.Validation("Image is not valid base64", nil)
	}
	return nil
}

// AnalyzeVisuals evaluates one webcam frame. Only a malformed frame is an
// error; upstream trouble yields a feedback with Available=false.
func (s *InterviewService) AnalyzeVisuals(ctx context.Context, frame string) (*VisualFeedback, error) {
	if err := ValidateFrame(frame); err != nil {
		return nil, err
	}
	unavailable := &VisualFeedback{Available: false, RiskFlags: []string{}, Tips: []string{}}
	if !s.ai.Configured() {
		utils.AIRequests.WithLabelValues("visuals", "disabled").Inc()
		return unavailable, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.ai.CompleteJSON(ctx, openai.SchemaRequest{
		Model:  s.ai.VisionModel(),
		System: visualSystemPrompt,
		User: []openai.ContentPart{
			openai.TextPart("Évalue la communication non verbale du candidat sur cette image."),
			openai.ImagePart(strings.TrimSpace(frame)),
		},
		SchemaName: "visual_feedback",
		Schema:     visualSchema,
	})
	if err != nil {
		utils.AIRequests.WithLabelValues("visuals", "error").Inc()
		utils.Log.Errorw("visual analysis failed", "error", err)
		return unavailable, nil
	}

	fb, err := parseVisualFeedback(raw)
	if err != nil {
		utils.AIRequests.WithLabelValues("visuals", "parse_error").Inc()
		utils.Log.Warnw("visual analysis unparseable", "error", err)
		return unavailable, nil
	}
	utils.AIRequests.WithLabelValues("visuals", "ok").Inc()
	return fb, nil
}

func parseVisualFeedback(raw string) (*VisualFeedback, error) {
	var p visualPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, apperr.Parse("visual feedback is not valid JSON", err)
	}
	if err := utils.Validate.Struct(p); err != nil {
		return nil, apperr.Parse("visual feedback does not match schema", err)
	}
	aspect := func(a *aspectPayload) *VisualAspect {
		return &VisualAspect{Score: *a.Score, Comment: strings.TrimSpace(a.Comment)}
	}
	return &VisualFeedback{
		Available:       true,
		Attire:          aspect(p.Attire),
		Posture:         aspect(p.Posture),
		EyeContact:      aspect(p.EyeContact),
		Expression:      aspect(p.Expression),
		Environment:     aspect(p.Environment),
		ConfidenceLevel: p.ConfidenceLevel,
		RiskFlags:       p.RiskFlags,
		Tips:            p.Tips,
	}, nil
}

// Transcribe turns an uploaded answer recording into text.
func (s *InterviewService) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if audio == nil || strings.TrimSpace(filename) == "" {
		return "", apperr.Validation("An audio file is required", nil)
	}
	if !s.ai.Configured() {
		utils.AIRequests.WithLabelValues("transcribe", "disabled").Inc()
		return "", apperr.Upstream("Transcription unavailable, please retry later", openai.ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.ai.Transcribe(ctx, filename, audio)
	if err != nil {
		utils.AIRequests.WithLabelValues("transcribe", "error").Inc()
		utils.Log.Errorw("transcription failed", "file", filename, "error", err)
		return "", apperr.Upstream("Transcription unavailable, please retry later", err)
	}
	utils.AIRequests.WithLabelValues("transcribe", "ok").Inc()
	return text, nil
}
