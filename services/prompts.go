package services

import (
	"fmt"
	"sort"
	"strings"
)

const interviewSystemPrompt = `Tu es un recruteur senior en banque d'investissement et en finance d'entreprise.
Tu évalues un entretien d'entraînement de manière exigeante mais bienveillante.
Chaque score est un entier entre 0 et 100. riskLevel vaut "low", "medium" ou "high".
Rends exactement une évaluation par question, dans l'ordre des questions.
Une réponse "` + NoAnswer + `" doit recevoir un score très bas.`

const visualSystemPrompt = `Tu es un coach en communication non verbale pour des entretiens en finance.
Évalue la tenue, la posture, le contact visuel, l'expression et l'environnement visibles sur l'image.
Chaque score est un entier entre 0 et 100. confidenceLevel vaut "low", "medium" ou "high".
Signale dans riskFlags tout élément rédhibitoire et donne des conseils concrets dans tips.`

func interviewUserPrompt(jobTitle string, questions, answers []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Poste visé : %s\n\n", jobTitle)
	for i, q := range questions {
		fmt.Fprintf(&b, "Question %d : %s\nRéponse %d : %s\n\n", i+1, q, i+1, answers[i])
	}
	return b.String()
}

func stringList() map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}}
}

func score() map[string]interface{} {
	return map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 100}
}

func object(props map[string]interface{}) map[string]interface{} {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func levelEnum() map[string]interface{} {
	return map[string]interface{}{"type": "string", "enum": []string{"low", "medium", "high"}}
}

var interviewSchema = object(map[string]interface{}{
	"overallScore": score(),
	"verdict":      map[string]interface{}{"type": "string"},
	"riskLevel":    levelEnum(),
	"subScores": object(map[string]interface{}{
		"communication":      score(),
		"technicalKnowledge": score(),
		"problemSolving":     score(),
		"professionalism":    score(),
	}),
	"questions": map[string]interface{}{
		"type": "array",
		"items": object(map[string]interface{}{
			"score":              score(),
			"strengths":          stringList(),
			"weaknesses":         stringList(),
			"missingElements":    stringList(),
			"recommendedActions": stringList(),
		}),
	},
	"strengths":        stringList(),
	"improvementAreas": stringList(),
	"suggestions":      stringList(),
})

func aspect() map[string]interface{} {
	return object(map[string]interface{}{
		"score":   score(),
		"comment": map[string]interface{}{"type": "string"},
	})
}

var visualSchema = object(map[string]interface{}{
	"attire":          aspect(),
	"posture":         aspect(),
	"eyeContact":      aspect(),
	"expression":      aspect(),
	"environment":     aspect(),
	"confidenceLevel": levelEnum(),
	"riskFlags":       stringList(),
	"tips":            stringList(),
})
