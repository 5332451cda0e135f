package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: a named step sequence plus
// assertions on the final store state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps is the ordered operation sequence.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final store state after all steps ran.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is a single ledger operation.
type Step struct {
	// Op is one of "publish", "react", "comment", "get".
	Op string `yaml:"op"`

	// Actor is the acting identity's label: the owner for publish, the
	// reactor for react, the author for comment.
	Actor string `yaml:"actor"`

	// Signer is the identity authorizing the step. Defaults to Actor;
	// set explicitly only to exercise signer-mismatch failures.
	Signer string `yaml:"signer,omitempty"`

	// Post is the owner label of the target post. Required for react and
	// comment, forbidden for publish.
	Post string `yaml:"post,omitempty"`

	// ContentRef is the content reference for publish and comment steps.
	ContentRef string `yaml:"content_ref,omitempty"`

	// Expect is the expected outcome: "ok" or an error code such as
	// "ALREADY_EXISTS".
	Expect string `yaml:"expect"`
}

// Assertion validates final store state.
type Assertion struct {
	// Type is one of "post_state", "comment_exists", "comment_absent".
	Type string `yaml:"type"`

	// Post is the owner label of the post under inspection.
	Post string `yaml:"post"`

	// Author is the comment author's label (comment_exists / comment_absent).
	Author string `yaml:"author,omitempty"`

	// Reactions is the expected reaction count (post_state, optional).
	Reactions *uint64 `yaml:"reactions,omitempty"`

	// Comments is the expected comment count (post_state, optional).
	Comments *uint64 `yaml:"comments,omitempty"`
}

// Assertion type constants.
const (
	AssertPostState     = "post_state"
	AssertCommentExists = "comment_exists"
	AssertCommentAbsent = "comment_absent"
)

// Step op constants.
const (
	OpPublish = "publish"
	OpReact   = "react"
	OpComment = "comment"
	OpGet     = "get"
)

// OutcomeOK is the expected-outcome value for a successful step.
const OutcomeOK = "ok"

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently passing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and coherent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Actor == "" {
			return fmt.Errorf("steps[%d]: actor is required", i)
		}
		if step.Expect == "" {
			return fmt.Errorf("steps[%d]: expect is required", i)
		}
		switch step.Op {
		case OpPublish:
			if step.Post != "" {
				return fmt.Errorf("steps[%d]: post is not allowed for publish", i)
			}
		case OpReact:
			if step.Post == "" {
				return fmt.Errorf("steps[%d]: post is required for react", i)
			}
		case OpComment:
			if step.Post == "" {
				return fmt.Errorf("steps[%d]: post is required for comment", i)
			}
		case OpGet:
			if step.Post == "" {
				return fmt.Errorf("steps[%d]: post is required for get", i)
			}
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Post == "" {
		return fmt.Errorf("assertions[%d]: post is required", index)
	}

	switch a.Type {
	case AssertPostState:
		if a.Reactions == nil && a.Comments == nil {
			return fmt.Errorf("assertions[%d]: post_state needs reactions or comments", index)
		}
	case AssertCommentExists, AssertCommentAbsent:
		if a.Author == "" {
			return fmt.Errorf("assertions[%d]: author is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
