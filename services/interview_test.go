package services

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"finquest/apperr"
	"finquest/clients/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	configured bool
	reply      string
	err        error
	transcript string
	lastReq    openai.SchemaRequest
}

func (f *fakeAI) Configured() bool    { return f.configured }
func (f *fakeAI) Model() string       { return "text-model" }
func (f *fakeAI) VisionModel() string { return "vision-model" }

func (f *fakeAI) CompleteJSON(ctx context.Context, req openai.SchemaRequest) (string, error) {
	f.lastReq = req
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("missing deadline")
	}
	return f.reply, f.err
}

func (f *fakeAI) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = io.ReadAll(audio)
	return f.transcript, nil
}

const goodInterview = `{
  "overallScore": 72,
  "verdict": "Candidat prometteur",
  "riskLevel": "medium",
  "subScores": {"communication": 80, "technicalKnowledge": 65, "problemSolving": 70, "professionalism": 75},
  "questions": [
    {"score": 78, "strengths": ["clair"], "weaknesses": [], "missingElements": ["chiffres"], "recommendedActions": ["citer un deal"]},
    {"score": 5, "strengths": [], "weaknesses": ["pas de réponse"], "missingElements": ["tout"], "recommendedActions": ["préparer"]}
  ],
  "strengths": ["motivation"],
  "improvementAreas": ["technique"],
  "suggestions": ["réviser la valorisation"]
}`

func interviewInput() InterviewInput {
	return InterviewInput{
		JobTitle:  "Analyste M&A",
		Questions: []string{"Présentez-vous", "Comment valoriser une entreprise ?"},
		Answers:   []string{"Je suis étudiant en finance."},
	}
}

func TestAnalyzeInterviewParsesFeedback(t *testing.T) {
	ai := &fakeAI{configured: true, reply: goodInterview}
	svc := NewInterviewService(ai, time.Second)

	fb, err := svc.AnalyzeInterview(context.Background(), interviewInput())
	require.NoError(t, err)
	assert.Equal(t, 72, fb.OverallScore)
	assert.Equal(t, "medium", fb.RiskLevel)
	assert.Equal(t, 65, fb.SubScores.TechnicalKnowledge)
	require.Len(t, fb.Questions, 2)
	assert.Equal(t, "Présentez-vous", fb.Questions[0].Question)
	assert.Equal(t, NoAnswer, fb.Questions[1].Answer)
	assert.Equal(t, "interview_feedback", ai.lastReq.SchemaName)
	assert.Equal(t, "text-model", ai.lastReq.Model)
	require.Len(t, ai.lastReq.User, 1)
	assert.Contains(t, ai.lastReq.User[0].Text, "Réponse 2 : "+NoAnswer)
}

func TestAnalyzeInterviewFailsClosed(t *testing.T) {
	replies := map[string]string{
		"not json":       "{oops",
		"missing score":  strings.Replace(goodInterview, `"overallScore": 72,`, "", 1),
		"out of range":   strings.Replace(goodInterview, `"overallScore": 72`, `"overallScore": 140`, 1),
		"bad risk level": strings.Replace(goodInterview, `"medium"`, `"extreme"`, 1),
		"missing list":   strings.Replace(goodInterview, `"suggestions": ["réviser la valorisation"]`, `"suggestions": null`, 1),
		"one question":   strings.Replace(goodInterview, `,
    {"score": 5, "strengths": [], "weaknesses": ["pas de réponse"], "missingElements": ["tout"], "recommendedActions": ["préparer"]}`, "", 1),
	}
	for name, reply := range replies {
		svc := NewInterviewService(&fakeAI{configured: true, reply: reply}, time.Second)
		fb, err := svc.AnalyzeInterview(context.Background(), interviewInput())
		assert.Nil(t, fb, name)
		assert.True(t, apperr.Is(err, apperr.KindUpstream), name)
	}
}

func TestAnalyzeInterviewUpstreamAndValidation(t *testing.T) {
	svc := NewInterviewService(&fakeAI{configured: true, err: context.DeadlineExceeded}, time.Second)
	_, err := svc.AnalyzeInterview(context.Background(), interviewInput())
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	svc = NewInterviewService(&fakeAI{configured: false}, time.Second)
	_, err = svc.AnalyzeInterview(context.Background(), interviewInput())
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	bad := []InterviewInput{
		{JobTitle: " ", Questions: []string{"q"}},
		{JobTitle: "Analyste"},
		{JobTitle: "Analyste", Questions: []string{"q"}, Answers: []string{"a", "b"}},
		{JobTitle: "Analyste", Questions: []string{"q", ""}},
	}
	for _, in := range bad {
		_, err := svc.AnalyzeInterview(context.Background(), in)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%+v", in)
	}
}

func frame(mime string) string {
	return "data:image/" + mime + ";base64," + base64.StdEncoding.EncodeToString([]byte("not really an image"))
}

const goodVisual = `{
  "attire": {"score": 85, "comment": "Tenue adaptée"},
  "posture": {"score": 70, "comment": "Légèrement voûté"},
  "eyeContact": {"score": 60, "comment": "Regard fuyant"},
  "expression": {"score": 75, "comment": "Souriant"},
  "environment": {"score": 90, "comment": "Fond neutre"},
  "confidenceLevel": "medium",
  "riskFlags": [],
  "tips": ["Redressez-vous"]
}`

func TestAnalyzeVisuals(t *testing.T) {
	ai := &fakeAI{configured: true, reply: goodVisual}
	svc := NewInterviewService(ai, time.Second)

	fb, err := svc.AnalyzeVisuals(context.Background(), frame("png"))
	require.NoError(t, err)
	assert.True(t, fb.Available)
	assert.Equal(t, 85, fb.Attire.Score)
	assert.Equal(t, "medium", fb.ConfidenceLevel)
	assert.Equal(t, "vision-model", ai.lastReq.Model)
	require.Len(t, ai.lastReq.User, 2)
	assert.Equal(t, "image_url", ai.lastReq.User[1].Type)
}

func TestAnalyzeVisualsDegradesToUnavailable(t *testing.T) {
	for _, ai := range []*fakeAI{
		{configured: true, err: errors.New("boom")},
		{configured: true, reply: `{"attire": {}}`},
		{configured: false},
	} {
		svc := NewInterviewService(ai, time.Second)
		fb, err := svc.AnalyzeVisuals(context.Background(), frame("jpeg"))
		require.NoError(t, err)
		assert.False(t, fb.Available)
		assert.Nil(t, fb.Attire)
	}
}

func TestAnalyzeVisualsRejectsMalformedFrames(t *testing.T) {
	svc := NewInterviewService(&fakeAI{configured: true, reply: goodVisual}, time.Second)
	for _, f := range []string{
		"",
		"https://example.com/a.png",
		frame("gif"),
		"data:image/png;base64,@@@",
		"data:image/png;base64,abc",
	} {
		_, err := svc.AnalyzeVisuals(context.Background(), f)
		assert.True(t, apperr.Is(err, apperr.KindValidation), f)
	}
}

func TestTranscribe(t *testing.T) {
	svc := NewInterviewService(&fakeAI{configured: true, transcript: "Bonjour"}, time.Second)
	text, err := svc.Transcribe(context.Background(), "a.webm", strings.NewReader("bytes"))
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", text)

	_, err = svc.Transcribe(context.Background(), "", strings.NewReader("bytes"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	svc = NewInterviewService(&fakeAI{configured: true, err: errors.New("down")}, time.Second)
	_, err = svc.Transcribe(context.Background(), "a.webm", strings.NewReader("bytes"))
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}
