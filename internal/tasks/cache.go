package tasks

import "github.com/ymori/salesdesk/internal/model"

// cache mirrors the server-side task set for the session. Invalidation
// rule: an entry is replaced only after the store confirms the mutation
// (replace-on-success); a failed store call leaves the mirror untouched.
type cache struct {
	tasks []model.Task
}

// replaceAll swaps the whole mirror for a fresh fetch.
func (c *cache) replaceAll(tasks []model.Task) {
	c.tasks = tasks
}

// upsert replaces the task with the same id, or prepends it when new
// (the list view is newest first).
func (c *cache) upsert(t model.Task) {
	for i := range c.tasks {
		if c.tasks[i].ID == t.ID {
			c.tasks[i] = t
			return
		}
	}
	c.tasks = append([]model.Task{t}, c.tasks...)
}

// remove drops the task with the given id, if present.
func (c *cache) remove(id string) {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			return
		}
	}
}

// get returns the cached task with the given id.
func (c *cache) get(id string) (model.Task, bool) {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return c.tasks[i], true
		}
	}
	return model.Task{}, false
}

// filter returns the cached tasks satisfying keep, preserving order.
func (c *cache) filter(keep func(model.Task) bool) []model.Task {
	var out []model.Task
	for _, t := range c.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// all returns a copy of the full mirror.
func (c *cache) all() []model.Task {
	return append([]model.Task(nil), c.tasks...)
}
