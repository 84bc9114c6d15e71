package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog holds the interview content: which roles can be applied for, what
// the technical checklist asks and which scenario is posed in the last round.
type Catalog struct {
	Roles     []RoleProfile      `koanf:"roles" json:"roles"`
	Technical TechnicalChecklist `koanf:"technical" json:"technical"`
	Scenario  ScenarioPrompt     `koanf:"scenario" json:"scenario"`
}

type RoleProfile struct {
	Name string `koanf:"name" json:"name"`
	// Skills are matched case-insensitively against resume text.
	Skills     []string `koanf:"skills" json:"skills"`
	MinMatches int      `koanf:"min_matches" json:"min_matches"`
}

type TechnicalChecklist struct {
	Bias            float64             `koanf:"bias" json:"-"`
	PassProbability float64             `koanf:"pass_probability" json:"-"`
	Questions       []TechnicalQuestion `koanf:"questions" json:"questions"`
}

type TechnicalQuestion struct {
	ID     string  `koanf:"id" json:"id"`
	Prompt string  `koanf:"prompt" json:"prompt"`
	Weight float64 `koanf:"weight" json:"-"`
}

type ScenarioPrompt struct {
	Question  string            `koanf:"question" json:"question"`
	PassScore float64           `koanf:"pass_score" json:"-"`
	Concepts  []ScenarioConcept `koanf:"concepts" json:"-"`
}

type ScenarioConcept struct {
	Name     string   `koanf:"name"`
	Keywords []string `koanf:"keywords"`
}

// DefaultCatalog mirrors the content of the original single-page interview.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Roles: []RoleProfile{
			{
				Name:       "Backend Engineer",
				Skills:     []string{"go", "python", "java", "rest", "api", "sql", "postgresql", "microservices", "docker", "kubernetes", "redis", "caching"},
				MinMatches: 5,
			},
			{
				Name:       "Data Engineer",
				Skills:     []string{"sql", "python", "spark", "airflow", "etl", "kafka", "data warehouse", "dbt", "postgresql", "aws"},
				MinMatches: 5,
			},
			{
				Name:       "ML Engineer",
				Skills:     []string{"python", "pytorch", "tensorflow", "machine learning", "scikit-learn", "mlops", "docker", "kubernetes", "sql", "model"},
				MinMatches: 5,
			},
		},
		Technical: TechnicalChecklist{
			Bias:            -2.25,
			PassProbability: 0.5,
			Questions: []TechnicalQuestion{
				{ID: "q1", Prompt: "Understands APIs & HTTP", Weight: 1.5},
				{ID: "q2", Prompt: "Understands Databases & Indexing", Weight: 1.5},
				{ID: "q3", Prompt: "Understands Scalability & Caching", Weight: 1.5},
			},
		},
		Scenario: ScenarioPrompt{
			Question:  "Describe how you would handle a production outage",
			PassScore: 75,
			Concepts: []ScenarioConcept{
				{Name: "detection", Keywords: []string{"monitor", "alert", "detect", "dashboard", "metrics"}},
				{Name: "mitigation", Keywords: []string{"rollback", "roll back", "mitigate", "failover", "restart", "feature flag", "scale"}},
				{Name: "communication", Keywords: []string{"communicate", "stakeholder", "status page", "notify", "incident commander"}},
				{Name: "root_cause", Keywords: []string{"root cause", "logs", "investigate", "debug", "trace"}},
				{Name: "postmortem", Keywords: []string{"postmortem", "post-mortem", "retrospective", "blameless", "action items", "prevent"}},
			},
		},
	}
}

// LoadCatalog returns the default catalog, with top-level sections replaced
// by the YAML file at path when it defines them. An empty path means defaults.
func LoadCatalog(path string) (*Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}

	var fromFile Catalog
	if err := k.UnmarshalWithConf("", &fromFile, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}

	if k.Exists("roles") {
		cat.Roles = fromFile.Roles
	}
	if k.Exists("technical.questions") {
		cat.Technical.Questions = fromFile.Technical.Questions
	}
	if k.Exists("technical.bias") {
		cat.Technical.Bias = fromFile.Technical.Bias
	}
	if k.Exists("technical.pass_probability") {
		cat.Technical.PassProbability = fromFile.Technical.PassProbability
	}
	if k.Exists("scenario.question") {
		cat.Scenario.Question = fromFile.Scenario.Question
	}
	if k.Exists("scenario.pass_score") {
		cat.Scenario.PassScore = fromFile.Scenario.PassScore
	}
	if k.Exists("scenario.concepts") {
		cat.Scenario.Concepts = fromFile.Scenario.Concepts
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) Validate() error {
	if len(c.Roles) == 0 {
		return fmt.Errorf("%w: at least one role is required", ErrInvalidCatalog)
	}
	roles := make(map[string]struct{}, len(c.Roles))
	for _, r := range c.Roles {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return fmt.Errorf("%w: role name must not be empty", ErrInvalidCatalog)
		}
		if _, dup := roles[name]; dup {
			return fmt.Errorf("%w: duplicate role %q", ErrInvalidCatalog, name)
		}
		roles[name] = struct{}{}
		if err := nonBlank(r.Skills); err != nil {
			return fmt.Errorf("%w: role %q skills: %v", ErrInvalidCatalog, name, err)
		}
	}

	if len(c.Technical.Questions) == 0 {
		return fmt.Errorf("%w: technical checklist is empty", ErrInvalidCatalog)
	}
	ids := make(map[string]struct{}, len(c.Technical.Questions))
	for _, q := range c.Technical.Questions {
		if q.ID == "" {
			return fmt.Errorf("%w: technical question id must not be empty", ErrInvalidCatalog)
		}
		if _, dup := ids[q.ID]; dup {
			return fmt.Errorf("%w: duplicate technical question %q", ErrInvalidCatalog, q.ID)
		}
		ids[q.ID] = struct{}{}
	}
	if p := c.Technical.PassProbability; p <= 0 || p >= 1 {
		return fmt.Errorf("%w: technical pass_probability must be in (0,1), got %v", ErrInvalidCatalog, p)
	}

	if strings.TrimSpace(c.Scenario.Question) == "" {
		return fmt.Errorf("%w: scenario question must not be empty", ErrInvalidCatalog)
	}
	if len(c.Scenario.Concepts) == 0 {
		return fmt.Errorf("%w: scenario needs at least one concept", ErrInvalidCatalog)
	}
	for _, concept := range c.Scenario.Concepts {
		if strings.TrimSpace(concept.Name) == "" {
			return fmt.Errorf("%w: scenario concept name must not be empty", ErrInvalidCatalog)
		}
		if err := nonBlank(concept.Keywords); err != nil {
			return fmt.Errorf("%w: scenario concept %q keywords: %v", ErrInvalidCatalog, concept.Name, err)
		}
	}
	return nil
}

func nonBlank(terms []string) error {
	if len(terms) == 0 {
		return fmt.Errorf("at least one is required")
	}
	for i, t := range terms {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("entry %d is blank", i)
		}
	}
	return nil
}

// Role looks up a role by exact name.
func (c *Catalog) Role(name string) (RoleProfile, bool) {
	for _, r := range c.Roles {
		if r.Name == name {
			return r, true
		}
	}
	return RoleProfile{}, false
}

func (c *Catalog) RoleNames() []string {
	names := make([]string, 0, len(c.Roles))
	for _, r := range c.Roles {
		names = append(names, r.Name)
	}
	return names
}
