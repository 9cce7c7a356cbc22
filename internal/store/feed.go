package store

import "sync"

// Table names used by the insert feed.
const (
	TableUsers         = "users"
	TableCustomers     = "customers"
	TableTasks         = "tasks"
	TableTaskThreads   = "task_threads"
	TableNotifications = "notifications"
)

// InsertEvent is delivered to subscribers when a row is inserted. Data
// holds the inserted entity (*model.Notification, *model.Task, ...) as
// stored, so a consumer can use it without transformation.
type InsertEvent struct {
	Table string
	Data  any
}

// Subscription is a registered listener on the insert feed. Events arrive
// on C; slow consumers lose events rather than blocking writers.
type Subscription struct {
	C chan InsertEvent

	feed  *feed
	table string
	field string
	value string
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.feed.remove(s)
}

// feed fans inserted rows out to matching subscriptions.
type feed struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newFeed() *feed {
	return &feed{subs: make(map[*Subscription]struct{})}
}

func (f *feed) subscribe(table, field, value string) *Subscription {
	sub := &Subscription{
		C:     make(chan InsertEvent, 16),
		feed:  f,
		table: table,
		field: field,
		value: value,
	}

	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	return sub
}

func (f *feed) remove(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[sub]; !ok {
		return
	}
	delete(f.subs, sub)
	close(sub.C)
}

// publish delivers an inserted row to every matching subscription.
// fields maps filterable column names to their inserted values.
func (f *feed) publish(table string, fields map[string]string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for sub := range f.subs {
		if sub.table != table {
			continue
		}
		if sub.field != "" && fields[sub.field] != sub.value {
			continue
		}
		select {
		case sub.C <- InsertEvent{Table: table, Data: data}:
		default:
			// Drop if the subscriber is not keeping up.
		}
	}
}
