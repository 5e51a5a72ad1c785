package interact

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Answers understood by a script.
const (
	AnswerAccept = "accept"
	AnswerReject = "reject"
	AnswerDate   = "date"
)

// ScriptEntry is one canned answer. Entries are consumed in order; an entry
// matches a question when its asset (and kind, if set) are equal.
type ScriptEntry struct {
	Asset   string       `yaml:"asset"`
	Kind    QuestionKind `yaml:"kind,omitempty"`
	Answer  string       `yaml:"answer"`
	Date    string       `yaml:"date,omitempty"`
	Silence bool         `yaml:"silence,omitempty"`
}

// Script is the on-disk form of a Scripted policy.
//
//	default: accept
//	comments: false
//	responses:
//	  - asset: IMG_0042.JPG
//	    kind: year
//	    answer: date
//	    date: "2004-06-01"
type Script struct {
	Default   string        `yaml:"default"`
	Comments  bool          `yaml:"comments"`
	Responses []ScriptEntry `yaml:"responses"`
}

// Scripted replays answers from a Script. Questions without a matching entry
// get the script's default answer.
type Scripted struct {
	mu     sync.Mutex
	script Script
	used   []bool
	loc    *time.Location
	asked  []Question
}

// NewScripted validates script and returns a policy replaying it.
func NewScripted(script Script, loc *time.Location) (*Scripted, error) {
	if loc == nil {
		loc = time.Local
	}
	switch script.Default {
	case "":
		script.Default = AnswerReject
	case AnswerAccept, AnswerReject:
	default:
		return nil, fmt.Errorf("invalid default answer %q", script.Default)
	}
	for i, e := range script.Responses {
		switch e.Answer {
		case AnswerAccept, AnswerReject:
		case AnswerDate:
			if _, err := ParseManualDate(e.Date, loc); err != nil {
				return nil, fmt.Errorf("response %d (%s): %w", i, e.Asset, err)
			}
		default:
			return nil, fmt.Errorf("response %d (%s): invalid answer %q", i, e.Asset, e.Answer)
		}
	}
	return &Scripted{
		script: script,
		used:   make([]bool, len(script.Responses)),
		loc:    loc,
	}, nil
}

// LoadScript reads a YAML script from path.
func LoadScript(path string, loc *time.Location) (*Scripted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	return NewScripted(script, loc)
}

func (s *Scripted) Confirm(_ context.Context, q Question) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.asked = append(s.asked, q)

	for i, e := range s.script.Responses {
		if s.used[i] || e.Asset != q.Asset {
			continue
		}
		if e.Kind != "" && e.Kind != q.Kind {
			continue
		}
		s.used[i] = true
		return s.answer(e, q)
	}

	if q.Kind == QuestionComment {
		return Response{Accepted: s.script.Comments}, nil
	}
	return Response{Accepted: s.script.Default == AnswerAccept}, nil
}

// Questions returns every question asked so far.
func (s *Scripted) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Question(nil), s.asked...)
}

func (s *Scripted) answer(e ScriptEntry, q Question) (Response, error) {
	switch e.Answer {
	case AnswerAccept:
		return Response{Accepted: true, PersistSilence: e.Silence && q.AllowSilence}, nil
	case AnswerDate:
		t, err := ParseManualDate(e.Date, s.loc)
		if err != nil {
			return Response{}, err
		}
		return Response{ManualDate: &t}, nil
	default:
		return Response{}, nil
	}
}
