package catalog

// #region imports
import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sparkyed/sparky-engine/internal/phase"
)

// #endregion imports

// #region catalog

// Catalog is the read-only lookup of topics and stories, loaded once at
// startup from a content directory.
type Catalog struct {
	topics  []Topic
	stories []Story

	topicByID   map[string]Topic
	storyByID   map[string]Story
	byTopic     map[string][]Story
	topicByName map[string]Topic // case-folded name → topic
}

// contentFile is the YAML shape of a single content file. A file may carry
// topics, stories, or both.
type contentFile struct {
	Topics  []Topic `yaml:"topics"`
	Stories []Story `yaml:"stories"`
}

// #endregion catalog

// #region load

// Load reads every *.yaml/*.yml file under dir and builds the catalog.
// Content is required: a missing or empty directory is an error.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", dir, err)
	}

	c := &Catalog{
		topicByID:   make(map[string]Topic),
		storyByID:   make(map[string]Story),
		byTopic:     make(map[string][]Story),
		topicByName: make(map[string]Topic),
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		var file contentFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
		}
		for _, t := range file.Topics {
			if err := c.addTopic(t); err != nil {
				return nil, fmt.Errorf("catalog: %s: %w", path, err)
			}
		}
		for _, s := range file.Stories {
			if err := c.addStory(s); err != nil {
				return nil, fmt.Errorf("catalog: %s: %w", path, err)
			}
		}
	}

	if len(c.topics) == 0 {
		return nil, fmt.Errorf("catalog: no topics found under %s", dir)
	}
	if issues := c.Validate(); len(issues) > 0 {
		return nil, fmt.Errorf("catalog: invalid content: %s", strings.Join(issues, "; "))
	}
	return c, nil
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func (c *Catalog) addTopic(t Topic) error {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	if t.ID == "" || t.Name == "" {
		return fmt.Errorf("topic missing id or name")
	}
	if _, dup := c.topicByID[t.ID]; dup {
		return fmt.Errorf("duplicate topic id %q", t.ID)
	}
	c.topics = append(c.topics, t)
	c.topicByID[t.ID] = t
	c.topicByName[strings.ToLower(t.Name)] = t
	return nil
}

func (c *Catalog) addStory(s Story) error {
	s.ID = strings.TrimSpace(s.ID)
	s.Title = strings.TrimSpace(s.Title)
	s.TopicID = strings.TrimSpace(s.TopicID)
	if s.ID == "" || s.Title == "" {
		return fmt.Errorf("story missing id or title")
	}
	if _, dup := c.storyByID[s.ID]; dup {
		return fmt.Errorf("duplicate story id %q", s.ID)
	}
	c.stories = append(c.stories, s)
	c.storyByID[s.ID] = s
	c.byTopic[s.TopicID] = append(c.byTopic[s.TopicID], s)
	return nil
}

// #endregion load

// #region validate

// Validate checks cross-references and rubric quality. It returns one
// message per problem; an empty slice means the content is servable.
// Missing pedagogical steps are not violations — the orchestrator advances
// unconditionally past a step a story does not script — but a present step
// must be usable.
func (c *Catalog) Validate() []string {
	var issues []string

	for _, s := range c.stories {
		if _, ok := c.topicByID[s.TopicID]; !ok {
			issues = append(issues, fmt.Sprintf("story %s: unknown topic %q", s.ID, s.TopicID))
		}
		known := make(map[string]bool)
		for _, step := range phase.Script() {
			known[string(step)] = true
		}
		for name, sc := range s.Steps {
			if !known[name] {
				issues = append(issues, fmt.Sprintf("story %s: step %q is not part of the script", s.ID, name))
				continue
			}
			if strings.TrimSpace(sc.MainQuestion) == "" {
				issues = append(issues, fmt.Sprintf("story %s: step %s has no main question", s.ID, name))
			}
			if sc.Rubric.Empty() {
				issues = append(issues, fmt.Sprintf("story %s: step %s has an empty rubric", s.ID, name))
			}
			for _, ex := range sc.Rubric.Examples {
				if strings.EqualFold(strings.TrimSpace(ex), strings.TrimSpace(sc.MainQuestion)) {
					issues = append(issues, fmt.Sprintf(
						"story %s: step %s rubric example restates the main question", s.ID, name))
				}
			}
		}
	}

	for _, t := range c.topics {
		if len(c.byTopic[t.ID]) == 0 {
			issues = append(issues, fmt.Sprintf("topic %s has no stories", t.ID))
		}
	}

	sort.Strings(issues)
	return issues
}

// #endregion validate

// #region lookups

// Topics returns every topic in load order.
func (c *Catalog) Topics() []Topic {
	return c.topics
}

// TopicNames returns the display names of every topic, sorted.
func (c *Catalog) TopicNames() []string {
	names := make([]string, 0, len(c.topics))
	for _, t := range c.topics {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// TopicByName looks a topic up by display name, case-folded.
func (c *Catalog) TopicByName(name string) (Topic, bool) {
	t, ok := c.topicByName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// StoriesForTopic returns the stories belonging to the given topic id.
func (c *Catalog) StoriesForTopic(topicID string) []Story {
	return c.byTopic[topicID]
}

// StoryByID looks a story up by id.
func (c *Catalog) StoryByID(id string) (Story, bool) {
	s, ok := c.storyByID[id]
	return s, ok
}

// #endregion lookups
