package phase

// #region imports
import (
	"encoding/json"
	"log"
)

// #endregion imports

// #region checklist

// Checklist tracks which major steps and sub-steps of the script are done.
// The list of names is fixed at construction; only the flags mutate. The
// invariant that all steps before the current one are done and all after it
// are undone is a contract on the orchestrator, not enforced here.
type Checklist struct {
	majors  []Step
	done    map[Step]bool
	subs    []string
	subDone map[string]bool
}

// NewChecklist returns a checklist with every major and sub-step undone.
func NewChecklist() *Checklist {
	c := &Checklist{
		majors:  Script(),
		done:    make(map[Step]bool),
		subs:    SubSteps(),
		subDone: make(map[string]bool),
	}
	return c
}

// #endregion checklist

// #region major-ops

// CurrentMajor returns the first undone major step in script order, or
// StepCompleted when every step is done.
func (c *Checklist) CurrentMajor() Step {
	for _, s := range c.majors {
		if !c.done[s] {
			return s
		}
	}
	return StepCompleted
}

// MarkMajorDone flips a major step's flag to done. Unknown names warn and
// no-op; they are never fatal.
func (c *Checklist) MarkMajorDone(s Step) {
	if !c.knownMajor(s) {
		log.Printf("[PHASE] mark done: unknown major step %q, ignoring", s)
		return
	}
	c.done[s] = true
}

// MarkMajorUndone flips a major step's flag back to undone.
func (c *Checklist) MarkMajorUndone(s Step) {
	if !c.knownMajor(s) {
		log.Printf("[PHASE] mark undone: unknown major step %q, ignoring", s)
		return
	}
	c.done[s] = false
}

// MajorDone reports whether the named major step is done.
func (c *Checklist) MajorDone(s Step) bool {
	return c.done[s]
}

func (c *Checklist) knownMajor(s Step) bool {
	for _, m := range c.majors {
		if m == s {
			return true
		}
	}
	return false
}

// #endregion major-ops

// #region sub-ops

// CurrentSub returns the first undone sub-step flag, or "" if all are done.
func (c *Checklist) CurrentSub() string {
	for _, s := range c.subs {
		if !c.subDone[s] {
			return s
		}
	}
	return ""
}

// MarkSubDone flips a sub-step flag to done. Unknown names warn and no-op.
func (c *Checklist) MarkSubDone(name string) {
	if !c.knownSub(name) {
		log.Printf("[PHASE] mark done: unknown sub-step %q, ignoring", name)
		return
	}
	c.subDone[name] = true
}

// MarkSubUndone flips a sub-step flag back to undone.
func (c *Checklist) MarkSubUndone(name string) {
	if !c.knownSub(name) {
		log.Printf("[PHASE] mark undone: unknown sub-step %q, ignoring", name)
		return
	}
	c.subDone[name] = false
}

// SubDone reports whether the named sub-step is done.
func (c *Checklist) SubDone(name string) bool {
	return c.subDone[name]
}

// ClearSubs marks every sub-step undone. The orchestrator calls this when a
// major step advances so the next step starts from "question not asked".
func (c *Checklist) ClearSubs() {
	for _, s := range c.subs {
		c.subDone[s] = false
	}
}

func (c *Checklist) knownSub(name string) bool {
	for _, s := range c.subs {
		if s == name {
			return true
		}
	}
	return false
}

// #endregion sub-ops

// #region reset

// Reset sets every major and sub-step flag to undone. The step name lists
// are unchanged.
func (c *Checklist) Reset() {
	for _, s := range c.majors {
		c.done[s] = false
	}
	c.ClearSubs()
}

// #endregion reset

// #region serialization

type checklistJSON struct {
	Majors []flagJSON `json:"majors"`
	Subs   []flagJSON `json:"subs"`
}

type flagJSON struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

// MarshalJSON serializes the checklist with its flag order preserved.
func (c *Checklist) MarshalJSON() ([]byte, error) {
	out := checklistJSON{}
	for _, s := range c.majors {
		out.Majors = append(out.Majors, flagJSON{Name: string(s), Done: c.done[s]})
	}
	for _, s := range c.subs {
		out.Subs = append(out.Subs, flagJSON{Name: s, Done: c.subDone[s]})
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores flags from a stored snapshot. Steps added to the
// script since the snapshot was taken stay undone; stored names the script
// no longer carries are dropped.
func (c *Checklist) UnmarshalJSON(data []byte) error {
	var in checklistJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = *NewChecklist()
	for _, f := range in.Majors {
		if c.knownMajor(Step(f.Name)) && f.Done {
			c.done[Step(f.Name)] = true
		}
	}
	for _, f := range in.Subs {
		if c.knownSub(f.Name) && f.Done {
			c.subDone[f.Name] = true
		}
	}
	return nil
}

// #endregion serialization
