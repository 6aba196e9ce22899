// Package advisor implements the interactive tech-stack questionnaire.
//
// The questionnaire is a small branching graph of questions. Multiple-choice
// questions contribute tags and the chosen option names the next question;
// free-text questions accept any answer and record it on the session.
// Collected tags are matched against the stack catalog to produce ranked
// recommendations pointing at the bank's stack guidance documents.
package advisor

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	"membank/internal/errors"
)

//go:embed data/questions.yaml
var questionsYAML []byte

// Option is one selectable answer to a question.
type Option struct {
	// Label is the answer text shown to the user.
	Label string `yaml:"label"`

	// Tags are contributed to the session when this option is chosen.
	Tags []string `yaml:"tags"`

	// Next is the id of the next question; empty ends the session.
	Next string `yaml:"next"`
}

// Question is one node in the questionnaire graph.
//
// A question is either multiple-choice (Options) or free-text (Free).
// Free-text questions accept any answer; the text is recorded on the
// session rather than contributing tags, and Next names the following
// question.
type Question struct {
	ID      string   `yaml:"id"`
	Prompt  string   `yaml:"prompt"`
	Options []Option `yaml:"options"`
	Free    bool     `yaml:"free"`
	Next    string   `yaml:"next"`
}

// Questionnaire is the full question graph.
type Questionnaire struct {
	Start     string     `yaml:"start"`
	Questions []Question `yaml:"questions"`

	byID map[string]*Question
}

// LoadQuestionnaire parses and validates the embedded question graph.
func LoadQuestionnaire() (*Questionnaire, error) {
	return parseQuestionnaire(questionsYAML)
}

func parseQuestionnaire(data []byte) (*Questionnaire, error) {
	var q Questionnaire
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, errors.Wrap(err, "parsing questionnaire")
	}

	q.byID = make(map[string]*Question, len(q.Questions))
	for i := range q.Questions {
		question := &q.Questions[i]
		if question.ID == "" {
			return nil, errors.New("question with empty id")
		}
		if question.Free && len(question.Options) > 0 {
			return nil, errors.Newf("free-text question %q cannot have options", question.ID)
		}
		if !question.Free && len(question.Options) == 0 {
			return nil, errors.Newf("question %q has no options", question.ID)
		}
		if _, dup := q.byID[question.ID]; dup {
			return nil, errors.Newf("duplicate question id %q", question.ID)
		}
		q.byID[question.ID] = question
	}

	if _, ok := q.byID[q.Start]; !ok {
		return nil, errors.Newf("start question %q not found", q.Start)
	}
	for _, question := range q.Questions {
		if question.Free && question.Next != "" {
			if _, ok := q.byID[question.Next]; !ok {
				return nil, errors.Newf("question %q points to unknown question %q",
					question.ID, question.Next)
			}
		}
		for _, opt := range question.Options {
			if opt.Next == "" {
				continue
			}
			if _, ok := q.byID[opt.Next]; !ok {
				return nil, errors.Newf("question %q option %q points to unknown question %q",
					question.ID, opt.Label, opt.Next)
			}
		}
	}

	return &q, nil
}

// Question returns a question by id.
func (q *Questionnaire) Question(id string) (*Question, bool) {
	question, ok := q.byID[id]
	return question, ok
}

// Session walks the questionnaire, accumulating tags from multiple-choice
// answers and recording free-text answers by question id.
type Session struct {
	questionnaire *Questionnaire
	current       string
	tags          []string
	answers       map[string]string
}

// NewSession starts a session at the questionnaire's start question.
func NewSession(q *Questionnaire) *Session {
	return &Session{
		questionnaire: q,
		current:       q.Start,
	}
}

// Current returns the question awaiting an answer, or nil when done.
func (s *Session) Current() *Question {
	if s.current == "" {
		return nil
	}
	question, _ := s.questionnaire.Question(s.current)
	return question
}

// Done reports whether the session has reached the end of the graph.
func (s *Session) Done() bool {
	return s.current == ""
}

// Answer records the chosen option index for the current question and
// advances to the option's next question.
func (s *Session) Answer(optionIndex int) error {
	question := s.Current()
	if question == nil {
		return errors.New("session is already complete")
	}
	if question.Free {
		return errors.Newf("question %q is free-text; use AnswerText", question.ID)
	}
	if optionIndex < 0 || optionIndex >= len(question.Options) {
		return errors.Newf("option %d out of range for question %q", optionIndex, question.ID)
	}

	opt := question.Options[optionIndex]
	s.tags = append(s.tags, opt.Tags...)
	s.current = opt.Next
	return nil
}

// AnswerText records a free-text answer for the current question and
// advances to the question's next question. Any text is accepted,
// including empty.
func (s *Session) AnswerText(text string) error {
	question := s.Current()
	if question == nil {
		return errors.New("session is already complete")
	}
	if !question.Free {
		return errors.Newf("question %q is multiple-choice; use Answer", question.ID)
	}

	if s.answers == nil {
		s.answers = make(map[string]string)
	}
	s.answers[question.ID] = text
	s.current = question.Next
	return nil
}

// Tags returns the tags accumulated so far.
func (s *Session) Tags() []string {
	return s.tags
}

// Answers returns the recorded free-text answers keyed by question id.
func (s *Session) Answers() map[string]string {
	return s.answers
}
